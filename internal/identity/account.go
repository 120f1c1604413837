package identity

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Account struct {
	Key         string
	Email       string
	DisplayName string
}

type Session struct {
	Token     string
	Account   Account
	ExpiresAt time.Time
}

var keyReplacer = strings.NewReplacer(".", "_", "#", "_", "$", "_", "[", "_", "]", "_", "/", "_")

// NormalizeKey maps an email to the account key used in document paths:
// lowercased, with characters that are illegal in a key replaced by '_'.
func NormalizeKey(email string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(email)))
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}

func displayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
