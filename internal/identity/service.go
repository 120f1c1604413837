// Package identity resolves credentials to an account key and issues the
// session token kept on this device.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/sandeepkv93/studyd/internal/logging"
	"github.com/sandeepkv93/studyd/internal/storage"
)

type Options struct {
	MinPasswordLength int
	BcryptCost        int
	SignInPerMinute   int
	SignInBurst       int
	Logger            *log.Logger
}

type Service struct {
	accounts storage.AccountRepository
	tokens   *TokenManager
	opts     Options
	log      *log.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewService(accounts storage.AccountRepository, tokens *TokenManager, opts Options) *Service {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.SignInPerMinute <= 0 {
		opts.SignInPerMinute = 10
	}
	if opts.SignInBurst <= 0 {
		opts.SignInBurst = 5
	}
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		opts:     opts,
		log:      logging.OrDiscard(opts.Logger).WithPrefix("identity"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// CreateAccount registers email with password and signs the new account in.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < s.opts.MinPasswordLength {
		return Session{}, &PasswordLengthError{Err: ErrWeakPassword, Limit: s.opts.MinPasswordLength}
	}
	if len(password) > maxPasswordBytes {
		return Session{}, &PasswordLengthError{Err: ErrPasswordTooLong, Limit: maxPasswordBytes}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		s.log.Error("hash password", "err", err)
		return Session{}, ErrUnavailable
	}
	acc := Account{Key: NormalizeKey(email), Email: email, DisplayName: displayName(email)}
	err = s.accounts.CreateAccount(ctx, storage.Account{
		Key:          acc.Key,
		Email:        acc.Email,
		DisplayName:  acc.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return Session{}, ErrAccountExists
		}
		s.log.Error("create account", "key", acc.Key, "err", err)
		return Session{}, ErrUnavailable
	}

	s.log.Info("account created", "key", acc.Key)
	return s.issue(acc)
}

// SignIn checks email and password against the stored hash.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	key := NormalizeKey(email)
	if !s.limiter(key).Allow() {
		s.log.Warn("sign-in throttled", "key", key)
		return Session{}, ErrTooManyAttempts
	}

	rec, err := s.accounts.GetAccount(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrAccountNotFound
		}
		s.log.Error("load account", "key", key, "err", err)
		return Session{}, ErrUnavailable
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrIncorrectPassword
	}

	s.log.Info("signed in", "key", key)
	return s.issue(Account{Key: rec.Key, Email: rec.Email, DisplayName: rec.DisplayName})
}

// Resume turns a stored token back into a session without asking for the
// password again.
func (s *Service) Resume(token string) (Session, error) {
	acc, expires, err := s.tokens.Verify(token)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Account: acc, ExpiresAt: expires}, nil
}

func (s *Service) issue(acc Account) (Session, error) {
	token, expires, err := s.tokens.Issue(acc)
	if err != nil {
		s.log.Error("issue token", "key", acc.Key, "err", err)
		return Session{}, ErrUnavailable
	}
	return Session{Token: token, Account: acc, ExpiresAt: expires}, nil
}

func (s *Service) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.opts.SignInPerMinute)), s.opts.SignInBurst)
		s.limiters[key] = l
	}
	return l
}
