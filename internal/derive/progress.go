// Package derive computes dashboard figures from a store snapshot. Nothing
// here is cached; every call recomputes from its inputs.
package derive

import (
	"slices"

	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/store"
)

// Progress counts completed topics among the ids that resolve to a record.
type Progress struct {
	Completed int
	Total     int
}

// Percent is 100*Completed/Total, or 0 for an empty set.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return 100 * float64(p.Completed) / float64(p.Total)
}

func progressOf(topics map[string]model.Topic, ids []string) Progress {
	var out Progress
	for _, id := range ids {
		t, ok := topics[id]
		if !ok {
			continue
		}
		out.Total++
		if t.IsComplete() {
			out.Completed++
		}
	}
	return out
}

// ContainerProgress covers every column of one container.
func ContainerProgress(snap store.Snapshot, kind model.ContainerKind, id string) Progress {
	cols := snap.Data.Placements.Of(kind)[id]
	return progressOf(snap.Data.Topics, cols.IDs())
}

// ColumnProgress covers one column list.
func ColumnProgress(snap store.Snapshot, loc model.Location) Progress {
	cols := snap.Data.Placements.Of(loc.Kind)[loc.Container]
	return progressOf(snap.Data.Topics, cols[loc.Column])
}

// OverallProgress covers every placed id once, whichever containers hold it.
func OverallProgress(snap store.Snapshot) Progress {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, containers := range []map[string]model.ColumnData{snap.Data.Placements.Target, snap.Data.Placements.Daily} {
		for _, cid := range sortedKeys(containers) {
			for _, id := range containers[cid].IDs() {
				if seen[id] {
					continue
				}
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return progressOf(snap.Data.Topics, ids)
}

// Pullable lists topics filed in any Target column that are not yet on the
// given day, sorted by topic name then id.
func Pullable(snap store.Snapshot, date string) []string {
	day := snap.Data.Placements.Daily[date]
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, cols := range snap.Data.Placements.Target {
		for _, id := range cols.IDs() {
			if seen[id] || day.Contains(id) {
				continue
			}
			if _, ok := snap.Data.Topics[id]; !ok {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		na, nb := snap.Data.Topics[a].Name, snap.Data.Topics[b].Name
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
