// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a user's bookmarks and lists to a portable archive,
// either as a local file or as an object in S3-compatible storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/parchment/pkg/types"
)

// ArchiveVersion is the schema version written into every archive.
const ArchiveVersion = 1

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for formats other than yaml and json.
var ErrUnknownFormat = errors.New("unknown export format")

// Archive is the exported library of one user.
type Archive struct {
	Version    int              `json:"version" yaml:"version"`
	UserID     string           `json:"user_id" yaml:"user_id"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Bookmarks  []types.Bookmark `json:"bookmarks" yaml:"bookmarks"`
	Lists      []types.UserList `json:"lists" yaml:"lists"`
}

// Build assembles an archive. Nil slices are stored as empty ones.
func Build(uid string, bookmarks []types.Bookmark, lists []types.UserList, now time.Time) Archive {
	if bookmarks == nil {
		bookmarks = []types.Bookmark{}
	}
	if lists == nil {
		lists = []types.UserList{}
	}
	return Archive{
		Version:    ArchiveVersion,
		UserID:     uid,
		ExportedAt: now.UTC(),
		Bookmarks:  bookmarks,
		Lists:      lists,
	}
}

// Encode serializes a in format.
func Encode(a Archive, format string) ([]byte, error) {
	switch format {
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// Decode parses an archive written by Encode.
func Decode(data []byte, format string) (Archive, error) {
	var a Archive
	var err error
	switch format {
	case FormatYAML, "":
		err = yaml.Unmarshal(data, &a)
	case FormatJSON:
		err = json.Unmarshal(data, &a)
	default:
		return Archive{}, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return Archive{}, fmt.Errorf("decoding %s archive: %w", format, err)
	}
	return a, nil
}

func extension(format string) string {
	if format == FormatJSON {
		return ".json"
	}
	return ".yaml"
}

func contentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// WriteFile encodes a into dir and returns the file path.
func WriteFile(dir string, a Archive, format string) (string, error) {
	data, err := Encode(a, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	name := fmt.Sprintf("parchment-%s%s", a.ExportedAt.Format("20060102-150405"), extension(format))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ObjectKey returns the storage key of an upload made at t, e.g.
// "users/u1/exports/2025/01/31/<uuid>.yaml".
func ObjectKey(uid string, t time.Time, format string) string {
	t = t.UTC()
	return fmt.Sprintf("users/%s/exports/%04d/%02d/%02d/%s%s",
		uid, t.Year(), int(t.Month()), t.Day(), uuid.New(), extension(format))
}

// Putter stores objects. *s3.Client implements it.
type Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Putter returns an S3 client for cfg using static credentials. A
// non-empty Endpoint selects an S3-compatible service such as MinIO.
func NewS3Putter(ctx context.Context, cfg types.ExportConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("export bucket is not configured")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload encodes a and stores it under a fresh ObjectKey in bucket. It
// returns the key.
func Upload(ctx context.Context, p Putter, bucket string, a Archive, format string) (string, error) {
	data, err := Encode(a, format)
	if err != nil {
		return "", err
	}
	key := ObjectKey(a.UserID, a.ExportedAt, format)
	_, err = p.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(format)),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return key, nil
}
