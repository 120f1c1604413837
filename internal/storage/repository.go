package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrAlreadyExists = errors.New("storage: already exists")
	ErrClosed        = errors.New("storage: closed")
)

// DocumentStore is the keyed remote document store the sync engine talks to.
type DocumentStore interface {
	Get(ctx context.Context, key string) (Document, error)
	Set(ctx context.Context, key string, body []byte, origin string) (Document, error)
	// Subscribe delivers the current document once, then every newer
	// version. An absent key is delivered as a Document with Version 0.
	// Deliveries for one subscription never overlap.
	Subscribe(key string, onChange func(Document), onError func(error)) (unsubscribe func())
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, in Account) error
	GetAccount(ctx context.Context, key string) (Account, error)
}
