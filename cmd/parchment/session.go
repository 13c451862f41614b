// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/pdiddy/parchment/internal/account"
	"github.com/pdiddy/parchment/internal/library"
)

// sessionPath is where the signed-in session token is kept.
func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "parchment", "session"), nil
}

func saveSession(sess account.Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, []byte(sess.Token+"\n"), 0o600)
}

func clearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// currentSession returns the signed-in session. It returns
// library.ErrAuthRequired when no one is signed in, and clears a session
// file whose token no longer validates.
func currentSession(ctx context.Context, a *app) (account.Session, error) {
	path, err := sessionPath()
	if err != nil {
		return account.Session{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return account.Session{}, library.ErrAuthRequired
	}
	if err != nil {
		return account.Session{}, fmt.Errorf("reading session: %w", err)
	}

	sess, err := a.accounts.Authenticate(ctx, strings.TrimSpace(string(data)))
	if err != nil {
		if cerr := clearSession(); cerr != nil {
			logger.Warn(ctx, "clearing session", "error", cerr)
		}
		return account.Session{}, err
	}
	return sess, nil
}

var stdin = bufio.NewReader(os.Stdin)

// prompt writes label to stderr and reads one line from stdin.
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(question string) bool {
	answer, err := prompt(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
