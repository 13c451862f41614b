// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/parchment/internal/account"
	"github.com/pdiddy/parchment/internal/database"
	"github.com/pdiddy/parchment/internal/docstore"
	"github.com/pdiddy/parchment/internal/feed"
	"github.com/pdiddy/parchment/internal/library"
	"github.com/pdiddy/parchment/internal/secrets"
)

// app holds the resources opened for one command.
type app struct {
	docs     *docstore.Store
	accounts *account.Service
}

// newFeedClient returns the arXiv client for the loaded configuration.
func newFeedClient() *feed.Client {
	return feed.NewClient(cfg.Feed, cfg.Platform, &http.Client{Timeout: cfg.Feed.Timeout})
}

// signingKey returns the configured session signing key. Without one, a
// key is generated once and kept next to the session file.
func signingKey() (string, error) {
	if cfg.Auth.SigningKey != "" {
		return cfg.Auth.SigningKey, nil
	}
	path, err := sessionPath()
	if err != nil {
		return "", err
	}
	path = filepath.Join(filepath.Dir(path), secrets.KeyJWTSigning)
	data, err := os.ReadFile(path)
	if err == nil && len(bytes.TrimSpace(data)) > 0 {
		return string(bytes.TrimSpace(data)), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading signing key: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}
	key := hex.EncodeToString(buf)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing signing key: %w", err)
	}
	return key, nil
}

// openApp opens the local database, the document store and the account
// service over it.
func openApp(ctx context.Context) (*app, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}
	authCfg := cfg.Auth
	authCfg.SigningKey = key

	db, err := database.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	docs := docstore.NewSQLite(db, docstore.Options{
		Rules:  docstore.DefaultRules(),
		Logger: logger,
	})

	svc, err := account.NewService(authCfg, account.NewSQLiteRepository(db), termMailer{w: os.Stderr}, logger, account.Options{
		OnDelete: func(ctx context.Context, uid string) error {
			return docs.DeleteTree(ctx, docstore.UserRoot(uid))
		},
	})
	if err != nil {
		docs.Close()
		return nil, err
	}
	return &app{docs: docs, accounts: svc}, nil
}

// Close waits for background account cleanup, then closes the store and
// its database.
func (a *app) Close() error {
	a.accounts.Wait()
	return a.docs.Close()
}

// termMailer prints account codes to the terminal; a local install has no
// outgoing mail.
type termMailer struct {
	w io.Writer
}

func (m termMailer) Send(_ context.Context, mail account.Mail) error {
	_, err := fmt.Fprintf(m.w, "%s\n  to:   %s\n  code: %s\n", mail.Subject, mail.To, mail.Code)
	return err
}

// userMessage returns the text to show for err: the message of an
// AuthError, ValidationError or SyncError, or the error itself.
func userMessage(err error) string {
	var authErr *account.AuthError
	var syncErr *library.SyncError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &syncErr):
		return syncErr.Message
	case errors.Is(err, library.ErrAuthRequired):
		return "You are not signed in. Run \"parchment account signin\" first."
	}
	return err.Error()
}
