// Package store holds the in-memory state of one account: topics, where they
// are placed, Target card metadata and settings. Every mutation is atomic and
// leaves no placement pointing at a missing topic.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sandeepkv93/studyd/internal/model"
)

var (
	ErrDateTaken    = errors.New("store: date already has a card")
	ErrCardNotFound = errors.New("store: card not found")
	ErrTopicMissing = errors.New("store: topic not found")
)

type ChangeKind int

const (
	ChangeData ChangeKind = iota
	ChangeSettings
)

func (k ChangeKind) String() string {
	if k == ChangeSettings {
		return "settings"
	}
	return "data"
}

type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

// Change is delivered to listeners after a mutation has been applied.
type Change struct {
	Kind     ChangeKind
	Origin   Origin
	Revision uint64
}

// Snapshot is a deep copy of the store at one revision.
type Snapshot struct {
	Data     model.DataDocument
	Settings model.Settings
	Revision uint64
}

type Option func(*Store)

// WithIDGenerator replaces the topic id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

type Store struct {
	mu        sync.Mutex
	data      model.DataDocument
	settings  model.Settings
	revision  uint64
	lastLocal map[ChangeKind]uint64
	listeners map[int]func(Change)
	nextSub   int
	newID     func() string
}

func New(opts ...Option) *Store {
	s := &Store{
		data:      model.NewDataDocument(),
		settings:  model.DefaultSettings(),
		lastLocal: make(map[ChangeKind]uint64),
		listeners: make(map[int]func(Change)),
		newID:     func() string { return "topic_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every applied change. fn runs on the mutating
// goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// commit bumps the revision and returns the notification to send once the
// lock is dropped. Callers hold s.mu.
func (s *Store) commit(kind ChangeKind, origin Origin) func() {
	s.revision++
	if origin == OriginLocal {
		s.lastLocal[kind] = s.revision
	}
	change := Change{Kind: kind, Origin: origin, Revision: s.revision}
	fns := make([]func(Change), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	return func() {
		for _, fn := range fns {
			fn(change)
		}
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Data:     s.data.Clone(),
		Settings: s.settings.Clone(),
		Revision: s.revision,
	}
}

func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Store) Topic(id string) (model.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.Topics[id]
	return t, ok
}

func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Locate returns every column list that currently holds id.
func (s *Store) Locate(id string) []model.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return locate(s.data.Placements, id)
}

func locate(p model.Placements, id string) []model.Location {
	out := make([]model.Location, 0)
	for _, kind := range []model.ContainerKind{model.KindTarget, model.KindDaily} {
		containers := p.Of(kind)
		for _, cid := range sortedKeys(containers) {
			cols := containers[cid]
			for _, col := range sortedKeys(cols) {
				if slices.Contains(cols[col], id) {
					out = append(out, model.Location{Kind: kind, Container: cid, Column: col})
				}
			}
		}
	}
	return out
}

// AddTopic files topic under kind/container/column and returns its id. With
// a forcedID whose record already exists only the placement is added, so two
// placements can share one topic.
func (s *Store) AddTopic(kind model.ContainerKind, container, column string, topic model.Topic, forcedID string) (string, error) {
	loc := model.Location{Kind: kind, Container: strings.TrimSpace(container), Column: strings.TrimSpace(column)}
	if err := validateLocation(loc); err != nil {
		return "", err
	}

	s.mu.Lock()
	id := strings.TrimSpace(forcedID)
	_, exists := s.data.Topics[id]
	if id == "" || !exists {
		topic.Name = strings.TrimSpace(topic.Name)
		if err := topic.Validate(); err != nil {
			s.mu.Unlock()
			return "", err
		}
		if id == "" {
			id = s.newID()
		}
		s.data.Topics[id] = topic
	}
	place(s.data.Placements, loc, id)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return id, nil
}

// UpdateTopic merges patch into the topic. Unknown ids are ignored.
func (s *Store) UpdateTopic(id string, patch model.TopicPatch) bool {
	if patch.IsEmpty() {
		return false
	}
	return s.mutateTopic(id, func(t model.Topic) model.Topic {
		return patch.Apply(t)
	})
}

func (s *Store) AdvanceProgress(id string) bool {
	return s.mutateTopic(id, func(t model.Topic) model.Topic {
		t.Progress = model.NextProgress(t.Progress)
		return t
	})
}

func (s *Store) RewindProgress(id string) bool {
	return s.mutateTopic(id, func(t model.Topic) model.Topic {
		t.Progress = model.PrevProgress(t.Progress)
		return t
	})
}

func (s *Store) mutateTopic(id string, fn func(model.Topic) model.Topic) bool {
	s.mu.Lock()
	t, ok := s.data.Topics[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.data.Topics[id] = fn(t)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

// DeleteTopic removes the record and every reference to it. Deleting an
// unknown id does nothing.
func (s *Store) DeleteTopic(id string) bool {
	s.mu.Lock()
	_, known := s.data.Topics[id]
	delete(s.data.Topics, id)
	scrubbed := scrub(s.data.Placements.Target, id)
	if scrub(s.data.Placements.Daily, id) {
		scrubbed = true
	}
	if !known && !scrubbed {
		s.mu.Unlock()
		return false
	}
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

// MoveTopic moves id from one column list to another. The caller's idea of
// where the topic is gets checked against current state first; a stale from
// makes the move a no-op.
func (s *Store) MoveTopic(id string, from, to model.Location) bool {
	if validateLocation(from) != nil || validateLocation(to) != nil || from == to {
		return false
	}

	s.mu.Lock()
	if _, ok := s.data.Topics[id]; !ok {
		s.mu.Unlock()
		return false
	}
	src := s.data.Placements.Of(from.Kind)[from.Container]
	if src == nil || !slices.Contains(src[from.Column], id) {
		s.mu.Unlock()
		return false
	}
	src[from.Column] = slices.DeleteFunc(src[from.Column], func(v string) bool { return v == id })
	place(s.data.Placements, to, id)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

// PullTopic links a topic that lives in a Target column into a day's
// column. A topic already anywhere on that day is not pulled again.
func (s *Store) PullTopic(id, date, column string) bool {
	to := model.Location{Kind: model.KindDaily, Container: date, Column: strings.TrimSpace(column)}
	if validateLocation(to) != nil {
		return false
	}

	s.mu.Lock()
	if _, ok := s.data.Topics[id]; !ok || !inAny(s.data.Placements.Target, id) {
		s.mu.Unlock()
		return false
	}
	if day := s.data.Placements.Daily[date]; day != nil && day.Contains(id) {
		s.mu.Unlock()
		return false
	}
	place(s.data.Placements, to, id)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

// AddCard creates an empty container. An existing container is left as is.
func (s *Store) AddCard(kind model.ContainerKind, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if err := validateContainer(kind, id); err != nil {
		return false, err
	}

	s.mu.Lock()
	containers := s.data.Placements.Of(kind)
	if _, ok := containers[id]; ok {
		s.mu.Unlock()
		return false, nil
	}
	containers[id] = make(model.ColumnData)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true, nil
}

// DeleteCard drops a container. Topics filed only there stay in the topic
// map as orphans; see Orphans.
func (s *Store) DeleteCard(kind model.ContainerKind, id string) bool {
	if !kind.IsValid() {
		return false
	}
	s.mu.Lock()
	containers := s.data.Placements.Of(kind)
	if _, ok := containers[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(containers, id)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

// RenameDateCard re-keys a Daily card. It refuses to overwrite a day that
// already has a card.
func (s *Store) RenameDateCard(oldDate, newDate string) error {
	if _, err := model.ParseDailyKey(oldDate); err != nil {
		return err
	}
	if _, err := model.ParseDailyKey(newDate); err != nil {
		return err
	}
	if oldDate == newDate {
		return nil
	}

	s.mu.Lock()
	days := s.data.Placements.Daily
	cols, ok := days[oldDate]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCardNotFound, oldDate)
	}
	if _, taken := days[newDate]; taken {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDateTaken, newDate)
	}
	days[newDate] = cols
	delete(days, oldDate)
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return nil
}

// AddTargetCard records a new goal and its empty placement container.
func (s *Store) AddTargetCard(title, startDate, endDate string) (string, error) {
	card := model.TargetCard{
		ID:        "target_" + uuid.NewString(),
		Title:     strings.TrimSpace(title),
		StartDate: strings.TrimSpace(startDate),
		EndDate:   strings.TrimSpace(endDate),
	}
	if err := card.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.data.Cards = append(s.data.Cards, card)
	if _, ok := s.data.Placements.Target[card.ID]; !ok {
		s.data.Placements.Target[card.ID] = make(model.ColumnData)
	}
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return card.ID, nil
}

// UpdateTargetCard retitles or re-dates a goal. Placements are untouched.
func (s *Store) UpdateTargetCard(id, title, startDate, endDate string) (bool, error) {
	next := model.TargetCard{
		ID:        id,
		Title:     strings.TrimSpace(title),
		StartDate: strings.TrimSpace(startDate),
		EndDate:   strings.TrimSpace(endDate),
	}
	if err := next.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.data.Cards, func(c model.TargetCard) bool { return c.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next.Color = s.data.Cards[i].Color
	s.data.Cards[i] = next
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true, nil
}

// DeleteTargetCard removes the goal metadata and its placement container.
func (s *Store) DeleteTargetCard(id string) bool {
	s.mu.Lock()
	before := len(s.data.Cards)
	s.data.Cards = slices.DeleteFunc(s.data.Cards, func(c model.TargetCard) bool { return c.ID == id })
	_, hadContainer := s.data.Placements.Target[id]
	delete(s.data.Placements.Target, id)
	if before == len(s.data.Cards) && !hadContainer {
		s.mu.Unlock()
		return false
	}
	notify := s.commit(ChangeData, OriginLocal)
	s.mu.Unlock()

	notify()
	return true
}

func (s *Store) UpdateSettings(next model.Settings) {
	s.mu.Lock()
	s.settings = next.Clone()
	notify := s.commit(ChangeSettings, OriginLocal)
	s.mu.Unlock()

	notify()
}

// ReplaceData swaps in a whole data document received from the backend.
func (s *Store) ReplaceData(doc model.DataDocument) {
	s.ApplyRemoteData(doc, ^uint64(0))
}

// ApplyRemoteData replaces the data document unless a local data change newer
// than revision since has been committed. It reports whether it applied.
func (s *Store) ApplyRemoteData(doc model.DataDocument, since uint64) bool {
	doc = doc.Clone()
	dropDangling(doc)

	s.mu.Lock()
	if s.lastLocal[ChangeData] > since {
		s.mu.Unlock()
		return false
	}
	s.data = doc
	notify := s.commit(ChangeData, OriginRemote)
	s.mu.Unlock()

	notify()
	return true
}

func (s *Store) ReplaceSettings(next model.Settings) {
	s.ApplyRemoteSettings(next, ^uint64(0))
}

// ApplyRemoteSettings is the settings counterpart of ApplyRemoteData.
func (s *Store) ApplyRemoteSettings(next model.Settings, since uint64) bool {
	s.mu.Lock()
	if s.lastLocal[ChangeSettings] > since {
		s.mu.Unlock()
		return false
	}
	s.settings = next.Clone()
	notify := s.commit(ChangeSettings, OriginRemote)
	s.mu.Unlock()

	notify()
	return true
}

// Reset returns the store to the empty defaults, as on account switch.
func (s *Store) Reset() {
	s.mu.Lock()
	s.data = model.NewDataDocument()
	s.settings = model.DefaultSettings()
	notifyData := s.commit(ChangeData, OriginRemote)
	notifySettings := s.commit(ChangeSettings, OriginRemote)
	s.mu.Unlock()

	notifyData()
	notifySettings()
}

// Orphans lists topic ids that no column references.
func (s *Store) Orphans() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0)
	for id := range s.data.Topics {
		if !inAny(s.data.Placements.Target, id) && !inAny(s.data.Placements.Daily, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func validateContainer(kind model.ContainerKind, id string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidKind, kind)
	}
	if id == "" {
		return model.NewValidationError("container", "container id is required")
	}
	if kind == model.KindDaily {
		if _, err := model.ParseDailyKey(id); err != nil {
			return err
		}
	}
	return nil
}

func validateLocation(loc model.Location) error {
	if err := validateContainer(loc.Kind, loc.Container); err != nil {
		return err
	}
	if strings.TrimSpace(loc.Column) == "" {
		return model.NewValidationError("column", "column is required")
	}
	return nil
}

// place appends id to the column list, creating the container and column on
// demand. An id already in the list is not added twice.
func place(p model.Placements, loc model.Location, id string) {
	containers := p.Of(loc.Kind)
	cols := containers[loc.Container]
	if cols == nil {
		cols = make(model.ColumnData)
		containers[loc.Container] = cols
	}
	if slices.Contains(cols[loc.Column], id) {
		return
	}
	cols[loc.Column] = append(cols[loc.Column], id)
}

func scrub(containers map[string]model.ColumnData, id string) bool {
	changed := false
	for _, cols := range containers {
		for col, ids := range cols {
			if !slices.Contains(ids, id) {
				continue
			}
			cols[col] = slices.DeleteFunc(ids, func(v string) bool { return v == id })
			changed = true
		}
	}
	return changed
}

func inAny(containers map[string]model.ColumnData, id string) bool {
	for _, cols := range containers {
		if cols.Contains(id) {
			return true
		}
	}
	return false
}

// dropDangling removes references to missing topics and repeated ids.
func dropDangling(doc model.DataDocument) {
	for _, containers := range []map[string]model.ColumnData{doc.Placements.Target, doc.Placements.Daily} {
		for _, cols := range containers {
			for col, ids := range cols {
				seen := make(map[string]bool, len(ids))
				kept := make([]string, 0, len(ids))
				for _, id := range ids {
					if _, ok := doc.Topics[id]; !ok || seen[id] {
						continue
					}
					seen[id] = true
					kept = append(kept, id)
				}
				cols[col] = kept
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
