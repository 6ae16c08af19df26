package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const exportContentType = "application/json"

// ErrExportDisabled is returned by ExportUsers when no object storage is configured.
var ErrExportDisabled = errors.New("user export requires object storage")

// ObjectStore is where user exports are written.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// ExportResult describes a written export object.
type ExportResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
}

// ExportUsers writes every user's public projection as a JSON array to
// object storage.
func (s *UserService) ExportUsers(ctx context.Context) (ExportResult, error) {
	if s.exports == nil {
		return ExportResult{}, ErrExportDisabled
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return ExportResult{}, err
	}

	data, err := json.Marshal(users)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := s.exportKey()
	if err := s.exports.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return ExportResult{}, fmt.Errorf("write export: %w", err)
	}

	s.log.Info(ctx, "users exported", "bucket", s.exports.Bucket(), "key", key, "count", len(users))
	return ExportResult{Bucket: s.exports.Bucket(), Key: key, Count: len(users)}, nil
}

func (s *UserService) exportKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("exports/users/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), uuid.New())
}
