// Package session owns everything that belongs to one signed-in account:
// its store and its sync engine. Logging out closes the session; the next
// account gets fresh ones.
package session

import (
	"context"
	"sync"

	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/storage"
	"github.com/sandeepkv93/studyd/internal/store"
	"github.com/sandeepkv93/studyd/internal/syncer"
)

func DataKey(accountKey string) string {
	return "data/" + accountKey + "/studyProgress/data_v4"
}

func SettingsKey(accountKey string) string {
	return "data/" + accountKey + "/studyProgress/settings_v1"
}

func KeysFor(accountKey string) syncer.Keys {
	return syncer.Keys{Data: DataKey(accountKey), Settings: SettingsKey(accountKey)}
}

type Session struct {
	Account identity.Account
	Store   *store.Store
	Engine  *syncer.Engine

	closeOnce sync.Once
	closeErr  error
}

// Open loads the account's documents into a new store and starts syncing.
func Open(ctx context.Context, acc identity.Account, backend storage.DocumentStore, opts syncer.Options, storeOpts ...store.Option) (*Session, error) {
	st := store.New(storeOpts...)
	engine := syncer.NewEngine(st, backend, KeysFor(acc.Key), opts)
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	engine.Start()
	return &Session{Account: acc, Store: st, Engine: engine}, nil
}

// Close flushes unsynced changes, ends every subscription and clears the
// store. Calling it again returns the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Engine.Stop(ctx)
		s.Store.Reset()
	})
	return s.closeErr
}
