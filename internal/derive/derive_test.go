package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/store"
)

func snapshotWith(topics map[string]int, target, daily map[string]model.ColumnData, cards ...model.TargetCard) store.Snapshot {
	doc := model.NewDataDocument()
	for id, progress := range topics {
		t := model.NewTopic(id)
		t.Progress = progress
		doc.Topics[id] = t
	}
	for k, v := range target {
		doc.Placements.Target[k] = v
	}
	for k, v := range daily {
		doc.Placements.Daily[k] = v
	}
	doc.Cards = append(doc.Cards, cards...)
	return store.Snapshot{Data: doc, Settings: model.DefaultSettings()}
}

func TestContainerProgressQuarter(t *testing.T) {
	snap := snapshotWith(
		map[string]int{"a": 100, "b": 0, "c": 40, "d": 80},
		map[string]model.ColumnData{"t1": {"Phy": {"a", "b"}, "Chem": {"c", "d", "ghost"}}},
		nil,
	)
	p := ContainerProgress(snap, model.KindTarget, "t1")
	assert.Equal(t, Progress{Completed: 1, Total: 4}, p)
	assert.Equal(t, 25.0, p.Percent())
}

func TestContainerProgressEmptyIsZero(t *testing.T) {
	snap := snapshotWith(nil, map[string]model.ColumnData{"t1": {}}, nil)
	assert.Equal(t, 0.0, ContainerProgress(snap, model.KindTarget, "t1").Percent())
	assert.Equal(t, 0.0, ContainerProgress(snap, model.KindDaily, "01/01/2026").Percent())
}

func TestOverallProgressCountsLinkedTopicsOnce(t *testing.T) {
	snap := snapshotWith(
		map[string]int{"a": 100, "b": 0, "orphan": 100},
		map[string]model.ColumnData{"t1": {"Phy": {"a", "b"}}},
		map[string]model.ColumnData{"01/02/2026": {"Exam": {"a"}}},
	)
	assert.Equal(t, Progress{Completed: 1, Total: 2}, OverallProgress(snap))
	assert.Equal(t, Progress{Completed: 1, Total: 1}, ColumnProgress(snap, model.Location{Kind: model.KindDaily, Container: "01/02/2026", Column: "Exam"}))
}

func TestPullableExcludesTopicsAlreadyOnTheDay(t *testing.T) {
	snap := snapshotWith(
		map[string]int{"a": 0, "b": 0, "c": 0},
		map[string]model.ColumnData{
			"t1": {"Phy": {"a", "b"}},
			"t2": {"Bio": {"b", "c", "ghost"}},
		},
		map[string]model.ColumnData{"01/02/2026": {"Morning Session": {"a"}}},
	)
	assert.Equal(t, []string{"b", "c"}, Pullable(snap, "01/02/2026"))
	assert.Equal(t, []string{"a", "b", "c"}, Pullable(snap, "02/02/2026"))
}

func TestPullableAfterPullThroughStore(t *testing.T) {
	st := store.New()
	id, err := st.AddTopic(model.KindTarget, "t1", "Phy", model.NewTopic("Optics"), "")
	require.NoError(t, err)

	require.True(t, st.PullTopic(id, "03/02/2026", "Exam"))
	assert.Empty(t, Pullable(st.Snapshot(), "03/02/2026"))
	assert.False(t, st.PullTopic(id, "03/02/2026", "Exam"))
	assert.Len(t, st.Snapshot().Data.Placements.Daily["03/02/2026"]["Exam"], 1)
}

func TestTargetTimeline(t *testing.T) {
	card := model.TargetCard{ID: "c", Title: "Boards", StartDate: "2026-03-01", EndDate: "2026-03-11"}
	today := time.Date(2026, 3, 6, 15, 30, 0, 0, time.Local)

	tl := TargetTimeline(card, today)
	assert.Equal(t, 10, tl.TotalDays)
	assert.Equal(t, 5, tl.DaysRemaining)
	assert.Equal(t, 5, tl.DaysPassed)
	assert.Equal(t, 50.0, tl.TimeProgress)
	assert.Equal(t, UrgencySoon, tl.Urgency)

	after := TargetTimeline(card, time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local))
	assert.Equal(t, 0, after.DaysRemaining)
	assert.Equal(t, 100.0, after.TimeProgress)
	assert.Equal(t, UrgencyUrgent, after.Urgency)

	before := TargetTimeline(card, time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local))
	assert.Equal(t, 0.0, before.TimeProgress)

	sameDay := model.TargetCard{ID: "d", Title: "One day", StartDate: "2026-03-01", EndDate: "2026-03-01"}
	assert.Equal(t, 0.0, TargetTimeline(sameDay, today).TimeProgress)
}

func TestUrgencyThresholds(t *testing.T) {
	assert.Equal(t, UrgencyUrgent, UrgencyFor(3))
	assert.Equal(t, UrgencySoon, UrgencyFor(4))
	assert.Equal(t, UrgencySoon, UrgencyFor(7))
	assert.Equal(t, UrgencyOK, UrgencyFor(8))
}

func TestTargetForDateAndSorting(t *testing.T) {
	early := model.TargetCard{ID: "e", Title: "Early", StartDate: "2026-01-01", EndDate: "2026-01-31"}
	late := model.TargetCard{ID: "l", Title: "Late", StartDate: "2026-01-15", EndDate: "2026-03-01"}
	snap := snapshotWith(nil, nil, map[string]model.ColumnData{
		"10/02/2026": {}, "02/01/2026": {}, "31/12/2025": {},
	}, late, early)

	card, ok := TargetForDate(snap, "20/01/2026")
	require.True(t, ok)
	assert.Equal(t, "e", card.ID)

	card, ok = TargetForDate(snap, "10/02/2026")
	require.True(t, ok)
	assert.Equal(t, "l", card.ID)

	_, ok = TargetForDate(snap, "10/05/2026")
	assert.False(t, ok)

	assert.Equal(t, []string{"31/12/2025", "02/01/2026", "10/02/2026"}, SortedDailyDates(snap))
	sorted := SortedTargetCards(snap)
	require.Len(t, sorted, 2)
	assert.Equal(t, "e", sorted[0].ID)
}

func TestCountdown(t *testing.T) {
	settings := model.CountdownSettings{Title: "Finals", TargetDate: "2026-01-02", TargetTime: "12:00"}
	now := time.Date(2026, 1, 1, 10, 58, 30, 0, time.UTC)

	c := CountdownAt(settings, now, time.UTC)
	assert.Equal(t, Countdown{Title: "Finals", Days: 1, Hours: 1, Minutes: 1, Seconds: 30}, c)
	assert.Equal(t, "01d 01:01:30", c.Clock())

	expired := CountdownAt(settings, now.Add(48*time.Hour), time.UTC)
	assert.True(t, expired.Expired)
	assert.Zero(t, expired.Days+expired.Hours+expired.Minutes+expired.Seconds)

	bad := CountdownAt(model.CountdownSettings{TargetDate: "soon"}, now, time.UTC)
	assert.True(t, bad.Expired)
}
