// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory is one secret: the filename is the key name and
// the trimmed file contents are the value.
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/pkg/types"
)

// Key files understood by Apply.
const (
	KeyJWTSigning  = "jwt-signing-key"
	KeyS3AccessKey = "s3-access-key"
	KeyS3SecretKey = "s3-secret-key"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(ctx context.Context, dir string, log logging.Logger) (map[string]string, error) {
	if log == nil {
		log = logging.Discard()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn(ctx, "could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into cfg. Values already set, for example from
// the environment, take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	setIfEmpty(&cfg.Auth.SigningKey, secrets[KeyJWTSigning])
	setIfEmpty(&cfg.Export.AccessKey, secrets[KeyS3AccessKey])
	setIfEmpty(&cfg.Export.SecretKey, secrets[KeyS3SecretKey])
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
