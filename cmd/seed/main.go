// Package main seeds a development database with log entries and day tags.
//
// The database location comes from the usual configuration (DATA_PATH,
// .env, defaults).
//
// Usage:
//
//	DATA_PATH=/tmp/daylog go run ./cmd/seed
//	DATA_PATH=/tmp/daylog go run ./cmd/seed --days 90 --seed 7
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/daylogapp/daylog-server/internal/config"
	"github.com/daylogapp/daylog-server/internal/domain"
	"github.com/daylogapp/daylog-server/internal/service"
	"github.com/daylogapp/daylog-server/internal/store/sqlite"
)

var (
	days = flag.Int("days", 30, "Number of days, ending today, to fill")
	seed = flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
)

type demoTag struct {
	name        string
	description string
	chance      float64 // Probability the tag lands on a given day
}

var demoTags = []demoTag{
	{"Ibuprofen", "200mg with food", 0.15},
	{"Low FODMAP", "elimination phase", 0.40},
	{"Coffee", "", 0.60},
	{"Poor sleep", "under six hours", 0.20},
	{"Exercise", "30+ minutes", 0.35},
}

var demoNotes = []string{
	"felt bloated after lunch",
	"cramping in the evening",
	"good day overall",
	"skipped breakfast",
	"ate out, spicy food",
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := cfg.Storage.DatabasePath()
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	dayTags := service.NewDayTagService(s, nil, nil)

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	fmt.Printf("Seed: %d\n", *seed)

	tags := make([]*domain.DayTag, len(demoTags))
	for i, dt := range demoTags {
		var desc *string
		if dt.description != "" {
			desc = &dt.description
		}
		tag, err := dayTags.CreateTag(ctx, dt.name, desc)
		if err != nil {
			log.Fatalf("Failed to create tag %q: %v", dt.name, err)
		}
		tags[i] = tag
	}
	fmt.Printf("Day tags ready: %d\n", len(tags))

	entriesCreated := 0
	attached := 0
	today := time.Now()

	for d := *days - 1; d >= 0; d-- {
		date := today.AddDate(0, 0, -d).Format(domain.DateLayout)

		for range 1 + rng.IntN(3) {
			e := randomEntry(rng, date)
			if err := s.CreateEntry(ctx, e); err != nil {
				log.Fatalf("Failed to create entry on %s: %v", date, err)
			}
			entriesCreated++
		}

		for i, dt := range demoTags {
			if rng.Float64() >= dt.chance {
				continue
			}
			if err := dayTags.AttachTagToDate(ctx, tags[i].ID, date); err != nil {
				log.Fatalf("Failed to attach %q to %s: %v", dt.name, date, err)
			}
			attached++
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Printf("\nCreated %d entries and %d tag attachments\n", entriesCreated, attached)
	fmt.Printf("Totals: %d entries, %d day tags, %d associations\n",
		stats.Entries, stats.DayTags, stats.Associations)
}

func randomEntry(rng *rand.Rand, date string) *domain.Entry {
	clock := fmt.Sprintf("%02d:%02d", 6+rng.IntN(16), rng.IntN(60))

	if rng.Float64() < 0.2 {
		return &domain.Entry{
			Date: date,
			Time: clock,
			Type: domain.EntryTypeNote,
			Note: &domain.Note{Content: demoNotes[rng.IntN(len(demoNotes))]},
		}
	}

	bm := &domain.BowelMovement{
		Consistency: 1 + rng.IntN(7),
		Urgency:     rng.IntN(4),
	}
	if rng.Float64() < 0.3 {
		bm.Notes = demoNotes[rng.IntN(len(demoNotes))]
	}
	return &domain.Entry{
		Date:          date,
		Time:          clock,
		Type:          domain.EntryTypeBowelMovement,
		BowelMovement: bm,
	}
}
