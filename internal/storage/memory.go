package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local DocumentStore and AccountRepository.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]Document
	accounts map[string]Account
	sets     int
	closed   bool
	failSet  func(key string) error
	hub      *hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		accounts: make(map[string]Account),
		hub:      newHub(),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Document{}, ErrClosed
	}
	doc, ok := m.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, body []byte, origin string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Document{}, ErrClosed
	}
	hook := m.failSet
	m.mu.Unlock()
	if hook != nil {
		if err := hook(key); err != nil {
			return Document{}, err
		}
	}

	m.mu.Lock()
	prev := m.docs[key]
	doc := Document{
		Key:       key,
		Body:      append([]byte(nil), body...),
		Version:   prev.Version + 1,
		Origin:    origin,
		UpdatedAt: time.Now().UTC(),
	}
	m.docs[key] = doc
	m.sets++
	m.mu.Unlock()

	m.hub.publish(cloneDocument(doc))
	return cloneDocument(doc), nil
}

func (m *MemoryStore) Subscribe(key string, onChange func(Document), onError func(error)) func() {
	sub, unsubscribe := m.hub.add(key, onChange, onError)
	m.mu.Lock()
	doc, ok := m.docs[key]
	m.mu.Unlock()
	if !ok {
		doc = Document{Key: key}
	}
	sub.offer(cloneDocument(doc))
	return unsubscribe
}

// FailSets installs fn to be consulted before every Set; a non-nil result
// fails the write. Pass nil to clear it.
func (m *MemoryStore) FailSets(fn func(key string) error) {
	m.mu.Lock()
	m.failSet = fn
	m.mu.Unlock()
}

// Sets reports how many writes have succeeded.
func (m *MemoryStore) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Fail pushes err to every subscriber of key.
func (m *MemoryStore) Fail(key string, err error) {
	m.hub.fail(key, err)
}

func (m *MemoryStore) CreateAccount(_ context.Context, in Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.accounts[in.Key]; ok {
		return ErrAlreadyExists
	}
	m.accounts[in.Key] = in
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, key string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Account{}, ErrClosed
	}
	out, ok := m.accounts[key]
	if !ok {
		return Account{}, ErrNotFound
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	m.hub.closeAll()
	return nil
}

func cloneDocument(d Document) Document {
	d.Body = append([]byte(nil), d.Body...)
	return d
}

var (
	_ DocumentStore     = (*MemoryStore)(nil)
	_ AccountRepository = (*MemoryStore)(nil)
)
