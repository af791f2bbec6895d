// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/medikart/medikart/internal/id"
)

var (
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Upload kinds, each with its own MIME allow-list.
const (
	KindLogo    = "logo"
	KindProduct = "product"
	KindCatalog = "catalog"
)

var allowedTypes = map[string]map[string]string{
	KindLogo: {
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/svg+xml": ".svg",
	},
	KindProduct: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
	},
	KindCatalog: {
		"text/csv":        ".csv",
		"application/csv": ".csv",
	},
}

// Store saves uploaded files under a per-tenant directory. Filenames are
// generated server-side, so client-supplied names never touch the path.
type Store struct {
	basePath string
	maxSize  int64
}

// NewStore creates an upload store rooted at basePath.
func NewStore(basePath string, maxSize int64) *Store {
	return &Store{
		basePath: basePath,
		maxSize:  maxSize,
	}
}

// Save writes the stream to <base>/<tenantID>/<kind>/<generated>.<ext> and
// returns the path relative to the base. contentType is matched against the
// kind's allow-list, size against the configured cap.
func (s *Store) Save(tenantID, kind, contentType string, size int64, r io.Reader) (string, error) {
	kinds, ok := allowedTypes[kind]
	if !ok {
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}

	// Strip parameters like "; charset=utf-8"
	mimeType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	ext, ok := kinds[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	if size > s.maxSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, s.maxSize)
	}

	dir := filepath.Join(s.basePath, tenantID, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := id.NewUUIDv7() + ext
	dst := filepath.Join(dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// LimitReader guards against a lying Content-Length.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(dst)
		return "", fmt.Errorf("%w: stream larger than declared", ErrTooLarge)
	}

	return filepath.Join(tenantID, kind, name), nil
}

// Open returns a reader for a previously saved file. The relative path is
// re-rooted and verified to stay inside the tenant's directory.
func (s *Store) Open(tenantID, relPath string) (io.ReadCloser, error) {
	full := filepath.Join(s.basePath, relPath)
	clean, err := filepath.Rel(s.basePath, full)
	if err != nil || strings.HasPrefix(clean, "..") || !strings.HasPrefix(clean, tenantID+string(filepath.Separator)) {
		return nil, fmt.Errorf("path escapes tenant directory")
	}
	return os.Open(full)
}
