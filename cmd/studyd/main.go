package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sandeepkv93/studyd/internal/config"
	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/logging"
	"github.com/sandeepkv93/studyd/internal/session"
	"github.com/sandeepkv93/studyd/internal/storage"
	"github.com/sandeepkv93/studyd/internal/syncer"
	"github.com/sandeepkv93/studyd/internal/update"
)

// backend is what the binary needs from a storage implementation.
type backend interface {
	storage.DocumentStore
	storage.AccountRepository
	Close() error
}

func main() {
	memory := flag.Bool("memory", false, "keep everything in memory for this run")
	flag.Parse()

	if err := run(*memory); err != nil {
		fmt.Fprintf(os.Stderr, "studyd failed: %v\n", err)
		os.Exit(1)
	}
}

func run(memory bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx := context.Background()

	var store backend
	if memory {
		store = storage.NewMemoryStore()
	} else {
		openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		store, err = storage.OpenSQLite(openCtx, cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.PollInterval)
		cancel()
		if err != nil {
			return err
		}
	}
	defer store.Close()

	tokens := identity.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer, cfg.Auth.SessionTTL)
	auth := identity.NewService(store, tokens, identity.Options{
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		BcryptCost:        cfg.Auth.BcryptCost,
		SignInPerMinute:   cfg.Auth.SignInPerMinute,
		SignInBurst:       cfg.Auth.SignInBurst,
		Logger:            logger,
	})
	sessionFile := identity.NewSessionFile(cfg.Auth.SessionFile)

	syncOpts := syncer.Options{
		Debounce:     cfg.Sync.Debounce,
		StatusBuffer: cfg.Sync.StatusBuffer,
		WriteTimeout: cfg.Sync.WriteTimeout,
		Origin:       "device-" + uuid.NewString()[:8],
		Logger:       logger,
	}
	open := func(ctx context.Context, acc identity.Account) (*session.Session, error) {
		return session.Open(ctx, acc, store, syncOpts)
	}

	m := update.NewModel(update.Deps{
		Auth:         auth,
		Sessions:     sessionFile,
		Open:         open,
		Logger:       logger,
		CloseTimeout: cfg.Sync.WriteTimeout,
	})
	sess, notice := restore(ctx, auth, sessionFile, open, logger)
	if sess != nil {
		m = m.WithSession(sess)
	}
	m.Login.Notice = notice

	logger.Info("starting", "driver", cfg.Storage.Driver, "memory", memory)
	final, runErr := tea.NewProgram(m, tea.WithAltScreen()).Run()

	closeCtx, cancel := context.WithTimeout(ctx, cfg.Sync.WriteTimeout)
	defer cancel()
	if fm, ok := final.(update.Model); ok {
		if err := fm.Close(closeCtx); err != nil {
			logger.Error("final flush", "err", err)
			if runErr == nil {
				runErr = fmt.Errorf("unsaved changes: %w", err)
			}
		}
	}
	return runErr
}

// restore reopens the saved session. On failure it returns the notice shown
// above the login form; a rejected token is also removed from disk.
func restore(ctx context.Context, auth *identity.Service, file *identity.SessionFile, open update.SessionOpener, logger *log.Logger) (*session.Session, string) {
	token, err := file.Load()
	if err != nil {
		logger.Warn("read session file", "err", err)
		return nil, ""
	}
	if token == "" {
		return nil, ""
	}
	ident, err := auth.Resume(token)
	if err != nil {
		logger.Warn("saved session rejected", "err", err)
		if err := file.Clear(); err != nil {
			logger.Warn("clear session file", "err", err)
		}
		return nil, identity.Reason(identity.ErrInvalidSession)
	}
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	sess, err := open(openCtx, ident.Account)
	if err != nil {
		logger.Warn("reopen session", "account", ident.Account.Key, "err", err)
		return nil, identity.Reason(identity.ErrUnavailable)
	}
	return sess, ""
}
