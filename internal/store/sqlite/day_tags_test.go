package sqlite

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

func strPtr(s string) *string { return &s }

func TestFindOrCreateDayTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, created, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", strPtr("morning cup"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, tag.ID)
	assert.Equal(t, "coffee", tag.Name)
	assert.Equal(t, "Coffee", tag.DisplayName)
	assert.Equal(t, "morning cup", tag.DescriptionOrEmpty())
	assert.Equal(t, 0, tag.UsageCount)
	assert.False(t, tag.CreatedAt.IsZero())

	// Second call returns the stored row untouched.
	again, created, err := s.FindOrCreateDayTag(ctx, "coffee", "COFFEE", strPtr("different"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)
	assert.Equal(t, "Coffee", again.DisplayName)
	assert.Equal(t, "morning cup", again.DescriptionOrEmpty())
}

func TestFindOrCreateDayTag_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, _, err := s.FindOrCreateDayTag(ctx, "ibuprofen", "Ibuprofen", nil)
			if assert.NoError(t, err) {
				ids[i] = tag.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	tags, err := s.ListDayTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestCreateDayTag_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.DayTag{Name: "dairy", DisplayName: "Dairy"}
	require.NoError(t, s.CreateDayTag(ctx, first))
	assert.NotZero(t, first.ID)

	err := s.CreateDayTag(ctx, &domain.DayTag{Name: "dairy", DisplayName: "DAIRY"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)
}

func TestGetDayTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetDayTag(ctx, 42)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = s.GetDayTagByName(ctx, "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAttachDetachDayTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)

	attached, err := s.AttachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, attached)

	// Attaching the same pair again is a no-op.
	attached, err = s.AttachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, attached)

	got, err := s.GetDayTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)

	detached, err := s.DetachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, detached)

	detached, err = s.DetachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, detached)

	got, err = s.GetDayTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)
}

func TestAttachDayTag_UnknownTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AttachDayTag(ctx, 999, "2024-03-01")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = s.DetachDayTag(ctx, 999, "2024-03-01")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAssociationUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)

	// A raw duplicate insert is rejected by the unique index.
	_, err = s.db.Exec(`INSERT INTO day_tag_associations (tag_id, date, created_at) VALUES (?, ?, ?)`,
		tag.ID, "2024-03-01", "2024-03-01T00:00:00Z")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestUsageCountMatchesAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var tagIDs []int64
	for _, name := range []string{"coffee", "dairy", "gluten"} {
		tag, _, err := s.FindOrCreateDayTag(ctx, name, name, nil)
		require.NoError(t, err)
		tagIDs = append(tagIDs, tag.ID)
	}

	dates := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		tagID := tagIDs[rng.IntN(len(tagIDs))]
		date := dates[rng.IntN(len(dates))]
		if rng.IntN(2) == 0 {
			_, err := s.AttachDayTag(ctx, tagID, date)
			require.NoError(t, err)
		} else {
			_, err := s.DetachDayTag(ctx, tagID, date)
			require.NoError(t, err)
		}
	}

	for _, tagID := range tagIDs {
		tag, err := s.GetDayTag(ctx, tagID)
		require.NoError(t, err)
		dates, err := s.ListDatesForDayTag(ctx, tagID)
		require.NoError(t, err)
		assert.Equal(t, len(dates), tag.UsageCount, "tag %s", tag.Name)
		assert.GreaterOrEqual(t, tag.UsageCount, 0)
	}
}

func TestDeleteDayTag_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	for _, d := range []string{"2024-03-01", "2024-03-02"} {
		_, err := s.AttachDayTag(ctx, tag.ID, d)
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteDayTag(ctx, tag.ID))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM day_tag_associations WHERE tag_id = ?`, tag.ID).Scan(&n))
	assert.Equal(t, 0, n)

	tags, err := s.GetDayTagsForDate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = s.DeleteDayTag(ctx, tag.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetDayTagsForDate_AttachOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var want []string
	for _, name := range []string{"zinc", "apple", "melatonin"} {
		tag, _, err := s.FindOrCreateDayTag(ctx, name, name, nil)
		require.NoError(t, err)
		_, err = s.AttachDayTag(ctx, tag.ID, "2024-03-01")
		require.NoError(t, err)
		want = append(want, name)
	}

	tags, err := s.GetDayTagsForDate(ctx, "2024-03-01")
	require.NoError(t, err)
	var got []string
	for _, tag := range tags {
		got = append(got, tag.Name)
	}
	assert.Equal(t, want, got)

	empty, err := s.GetDayTagsForDate(ctx, "2024-03-09")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListDayTags_Order(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	usage := map[string]int{"beta": 1, "alpha": 1, "gamma": 3, "delta": 0}
	for name, n := range usage {
		tag, _, err := s.FindOrCreateDayTag(ctx, name, name, nil)
		require.NoError(t, err)
		for i := range n {
			_, err := s.AttachDayTag(ctx, tag.ID, fmt.Sprintf("2024-03-%02d", i+1))
			require.NoError(t, err)
		}
	}

	tags, err := s.ListDayTags(ctx)
	require.NoError(t, err)
	var got []string
	for _, tag := range tags {
		got = append(got, tag.Name)
	}
	assert.Equal(t, []string{"gamma", "alpha", "beta", "delta"}, got)
}

func TestUpdateDayTagDescription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)

	got, err := s.UpdateDayTagDescription(ctx, tag.ID, strPtr("two cups"))
	require.NoError(t, err)
	assert.Equal(t, "two cups", got.DescriptionOrEmpty())

	got, err = s.UpdateDayTagDescription(ctx, tag.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Description)

	_, err = s.UpdateDayTagDescription(ctx, 999, nil)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRenameDayTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coffee, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	_, _, err = s.FindOrCreateDayTag(ctx, "tea", "Tea", nil)
	require.NoError(t, err)

	got, err := s.RenameDayTag(ctx, coffee.ID, "espresso", "Espresso")
	require.NoError(t, err)
	assert.Equal(t, "espresso", got.Name)
	assert.Equal(t, "Espresso", got.DisplayName)

	_, err = s.RenameDayTag(ctx, coffee.ID, "tea", "Tea")
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

	_, err = s.RenameDayTag(ctx, 999, "x", "x")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListDatesForDayTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	for _, d := range []string{"2024-03-05", "2024-03-01", "2024-03-03"} {
		_, err := s.AttachDayTag(ctx, tag.ID, d)
		require.NoError(t, err)
	}

	dates, err := s.ListDatesForDayTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-03", "2024-03-05"}, dates)

	_, err = s.ListDatesForDayTag(ctx, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReconcileUsageCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coffee, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	tea, _, err := s.FindOrCreateDayTag(ctx, "tea", "Tea", nil)
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, coffee.ID, "2024-03-01")
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, coffee.ID, "2024-03-02")
	require.NoError(t, err)

	fixed, err := s.ReconcileUsageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fixed)

	// Corrupt both counters behind the store's back.
	_, err = s.db.Exec(`UPDATE day_tags SET usage_count = 7`)
	require.NoError(t, err)

	fixed, err = s.ReconcileUsageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixed)

	got, err := s.GetDayTag(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	got, err = s.GetDayTag(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)
}

func TestStreamDayTagAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coffee, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", strPtr("morning cup"))
	require.NoError(t, err)
	tea, _, err := s.FindOrCreateDayTag(ctx, "tea", "Tea", nil)
	require.NoError(t, err)

	_, err = s.AttachDayTag(ctx, tea.ID, "2024-03-02")
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, coffee.ID, "2024-03-02")
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, coffee.ID, "2024-03-01")
	require.NoError(t, err)

	var got []*domain.DayTagAssignment
	for a, err := range s.StreamDayTagAssignments(ctx) {
		require.NoError(t, err)
		got = append(got, a)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-01", got[0].Date)
	assert.Equal(t, "Coffee", got[0].DisplayName)
	assert.Equal(t, "morning cup", *got[0].Description)
	assert.Equal(t, "2024-03-02", got[1].Date)
	assert.Equal(t, "tea", got[1].TagName)
	assert.Nil(t, got[1].Description)
	assert.Equal(t, "coffee", got[2].TagName)

	// Breaking out early must not hold the cursor open.
	for range s.StreamDayTagAssignments(ctx) {
		break
	}
	_, err = s.AttachDayTag(ctx, tea.ID, "2024-03-03")
	require.NoError(t, err)
}
