package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrInvalidKind = errors.New("model: invalid container kind")
	ErrInvalidDate = errors.New("model: invalid date")
)

type ContainerKind string

const (
	KindTarget ContainerKind = "target"
	KindDaily  ContainerKind = "daily"
)

func (k ContainerKind) IsValid() bool {
	switch k {
	case KindTarget, KindDaily:
		return true
	default:
		return false
	}
}

func ParseKind(raw string) (ContainerKind, error) {
	switch raw {
	case "target", "t", "table1":
		return KindTarget, nil
	case "daily", "d", "table2":
		return KindDaily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, raw)
	}
}

// Location names one column list inside one container.
type Location struct {
	Kind      ContainerKind
	Container string
	Column    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s/%s/%s", l.Kind, l.Container, l.Column)
}

// ColumnData maps a column label to the ordered topic ids filed under it.
type ColumnData map[string][]string

func (c ColumnData) Clone() ColumnData {
	out := make(ColumnData, len(c))
	for col, ids := range c {
		out[col] = slices.Clone(ids)
	}
	return out
}

func (c ColumnData) Contains(id string) bool {
	for _, ids := range c {
		if slices.Contains(ids, id) {
			return true
		}
	}
	return false
}

// IDs returns every id in the container once, in column then list order.
func (c ColumnData) IDs() []string {
	cols := make([]string, 0, len(c))
	for col := range c {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, col := range cols {
		for _, id := range c[col] {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Placements is the single canonical home of all placement data.
type Placements struct {
	Target map[string]ColumnData
	Daily  map[string]ColumnData
}

func NewPlacements() Placements {
	return Placements{
		Target: make(map[string]ColumnData),
		Daily:  make(map[string]ColumnData),
	}
}

func (p Placements) Of(kind ContainerKind) map[string]ColumnData {
	if kind == KindDaily {
		return p.Daily
	}
	return p.Target
}

func (p Placements) Clone() Placements {
	out := NewPlacements()
	for id, cols := range p.Target {
		out.Target[id] = cols.Clone()
	}
	for id, cols := range p.Daily {
		out.Daily[id] = cols.Clone()
	}
	return out
}

const (
	DailyKeyLayout = "02/01/2006"
	ISODateLayout  = "2006-01-02"
)

func DailyKey(t time.Time) string {
	return t.Format(DailyKeyLayout)
}

func ParseDailyKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DailyKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not DD/MM/YYYY", ErrInvalidDate, key)
	}
	return t, nil
}

func ParseISODate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(ISODateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, raw)
	}
	return t, nil
}
