package derive

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/store"
)

const day = 24 * time.Hour

type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencySoon   Urgency = "soon"
	UrgencyOK     Urgency = "ok"
)

// Timeline describes how far a Target card's date range has run.
type Timeline struct {
	TotalDays     int
	DaysRemaining int
	DaysPassed    int
	TimeProgress  float64
	Urgency       Urgency
}

// TargetTimeline measures card against today. Unparseable dates give a zero
// Timeline.
func TargetTimeline(card model.TargetCard, today time.Time) Timeline {
	start, end, err := card.Range()
	if err != nil {
		return Timeline{Urgency: UrgencyOK}
	}
	total := dayDiff(start, end)
	remaining := dayDiff(today.In(start.Location()), end)
	if remaining < 0 {
		remaining = 0
	}
	passed := total - remaining

	var pct float64
	if total > 0 {
		pct = clamp(float64(passed)/float64(total)*100, 0, 100)
	}
	return Timeline{
		TotalDays:     total,
		DaysRemaining: remaining,
		DaysPassed:    passed,
		TimeProgress:  pct,
		Urgency:       UrgencyFor(remaining),
	}
}

func UrgencyFor(daysRemaining int) Urgency {
	switch {
	case daysRemaining <= 3:
		return UrgencyUrgent
	case daysRemaining <= 7:
		return UrgencySoon
	default:
		return UrgencyOK
	}
}

// TargetForDate returns the first card, by end date, whose range holds the
// Daily key date.
func TargetForDate(snap store.Snapshot, date string) (model.TargetCard, bool) {
	d, err := model.ParseDailyKey(date)
	if err != nil {
		return model.TargetCard{}, false
	}
	for _, card := range SortedTargetCards(snap) {
		start, end, err := card.Range()
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			return card, true
		}
	}
	return model.TargetCard{}, false
}

// SortedDailyDates returns the Daily keys in calendar order. Keys that do not
// parse sort last, by string.
func SortedDailyDates(snap store.Snapshot) []string {
	keys := sortedKeys(snap.Data.Placements.Daily)
	slices.SortStableFunc(keys, func(a, b string) int {
		ta, errA := model.ParseDailyKey(a)
		tb, errB := model.ParseDailyKey(b)
		switch {
		case errA != nil && errB != nil:
			return strings.Compare(a, b)
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return ta.Compare(tb)
	})
	return keys
}

// SortedTargetCards orders cards by end date, then title.
func SortedTargetCards(snap store.Snapshot) []model.TargetCard {
	cards := slices.Clone(snap.Data.Cards)
	slices.SortStableFunc(cards, func(a, b model.TargetCard) int {
		if c := strings.Compare(a.EndDate, b.EndDate); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})
	return cards
}

// dayDiff counts calendar days from a to b. Any time into a's day still
// counts that whole day as remaining, so the result rounds up.
func dayDiff(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / day)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
