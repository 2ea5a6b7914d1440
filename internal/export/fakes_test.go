package export

import (
	"context"
	"iter"
	"sync"

	"github.com/daylogapp/daylog-server/internal/domain"
)

// memEntries is an in-memory EntryReader. Entries must be pre-sorted.
type memEntries struct {
	entries []*domain.Entry
	err     error
	reads   int
}

func (m *memEntries) StreamEntriesInRange(_ context.Context, start, end string) iter.Seq2[*domain.Entry, error] {
	return func(yield func(*domain.Entry, error) bool) {
		if m.err != nil {
			yield(nil, m.err)
			return
		}
		for _, e := range m.entries {
			if e.Date < start || e.Date > end {
				continue
			}
			m.reads++
			if !yield(e, nil) {
				return
			}
		}
	}
}

type memAssignments struct {
	rows []*domain.DayTagAssignment
	err  error
}

func (m *memAssignments) StreamDayTagAssignments(context.Context) iter.Seq2[*domain.DayTagAssignment, error] {
	return func(yield func(*domain.DayTagAssignment, error) bool) {
		if m.err != nil {
			yield(nil, m.err)
			return
		}
		for _, r := range m.rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// mockSink records writes instead of touching the filesystem.
type mockSink struct {
	mu     sync.Mutex
	writes map[string][]byte
	err    error
}

func newMockSink() *mockSink {
	return &mockSink{writes: make(map[string][]byte)}
}

func (m *mockSink) Write(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.writes[name] = append([]byte(nil), data...)
	return "/mock/" + name, nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

type mockSharer struct {
	shared []string
	err    error
}

func (m *mockSharer) Share(_ context.Context, path string) error {
	if m.err != nil {
		return m.err
	}
	m.shared = append(m.shared, path)
	return nil
}

func bm(id int64, date, at string, consistency, urgency int, notes string) *domain.Entry {
	return &domain.Entry{
		ID:   id,
		Date: date,
		Time: at,
		Type: domain.EntryTypeBowelMovement,
		BowelMovement: &domain.BowelMovement{
			Consistency: consistency,
			Urgency:     urgency,
			Notes:       notes,
		},
	}
}

func note(id int64, date, at, content string) *domain.Entry {
	return &domain.Entry{
		ID:   id,
		Date: date,
		Time: at,
		Type: domain.EntryTypeNote,
		Note: &domain.Note{Content: content},
	}
}

func strPtr(s string) *string { return &s }
