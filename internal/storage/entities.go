package storage

import (
	"encoding/json"
	"time"
)

// Document is one keyed, fully-overwritten record. Version grows by one on
// every write to the key; a zero Version means the key holds nothing yet.
type Document struct {
	Key       string
	Body      json.RawMessage
	Version   int64
	Origin    string
	UpdatedAt time.Time
}

func (d Document) Exists() bool {
	return d.Version > 0
}

type Account struct {
	Key          string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}
