package storage

import "sync"

// hub fans documents out to subscribers. Each subscriber owns one goroutine
// and a single-slot mailbox, so a slow callback only ever sees the newest
// version it missed, never a backlog.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[uint64]*subscriber
	next uint64
}

type subscriber struct {
	onChange func(Document)
	onError  func(error)

	mu       sync.Mutex
	latest   *Document
	err      error
	lastSeen int64
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[uint64]*subscriber)}
}

func (h *hub) add(key string, onChange func(Document), onError func(error)) (*subscriber, func()) {
	sub := &subscriber{
		onChange: onChange,
		onError:  onError,
		lastSeen: -1,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]*subscriber)
	}
	h.subs[key][id] = sub
	h.mu.Unlock()

	go sub.loop()

	return sub, func() {
		h.mu.Lock()
		if byID, ok := h.subs[key]; ok {
			delete(byID, id)
			if len(byID) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
		sub.stop()
	}
}

func (h *hub) publish(doc Document) {
	for _, sub := range h.subscribers(doc.Key) {
		sub.offer(doc)
	}
}

func (h *hub) fail(key string, err error) {
	for _, sub := range h.subscribers(key) {
		sub.offerErr(err)
	}
}

func (h *hub) subscribers(key string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscriber, 0, len(h.subs[key]))
	for _, sub := range h.subs[key] {
		out = append(out, sub)
	}
	return out
}

func (h *hub) keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for key := range h.subs {
		out = append(out, key)
	}
	return out
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]map[uint64]*subscriber)
	h.mu.Unlock()
	for _, byID := range subs {
		for _, sub := range byID {
			sub.stop()
		}
	}
}

// offer queues doc unless the subscriber already has it or something newer.
func (s *subscriber) offer(doc Document) {
	s.mu.Lock()
	if doc.Version <= s.lastSeen {
		s.mu.Unlock()
		return
	}
	s.lastSeen = doc.Version
	d := doc
	s.latest = &d
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) offerErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) seen() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		doc, err := s.latest, s.err
		s.latest, s.err = nil, nil
		s.mu.Unlock()

		if err != nil && s.onError != nil {
			s.onError(err)
		}
		if doc != nil && s.onChange != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.onChange(*doc)
		}
	}
}
