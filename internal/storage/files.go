package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zagrebin/culinaryblog/pkg/config"
	"github.com/zagrebin/culinaryblog/pkg/logging"
)

// LocalStore keeps uploaded media on the local filesystem under a single
// media root and serves it under a public URL prefix. Stored names are
// random UUIDs keeping the upload's extension; every resolved path is
// checked to stay inside the root.
type LocalStore struct {
	root         string
	publicPrefix string
	logger       *zap.Logger
}

// NewLocalStore creates the media root if needed and returns a store
func NewLocalStore(cfg *config.MediaConfig) (*LocalStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("media root is not configured")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	prefix := cfg.PublicPrefix
	if prefix == "" {
		prefix = "/media"
	}
	return &LocalStore{
		root:         root,
		publicPrefix: strings.TrimSuffix(prefix, "/"),
		logger:       logging.GetLogger().With(zap.String("component", "file-store")),
	}, nil
}

// Store writes the upload into subdir under the media root and returns its
// public URL. The original name only contributes its extension.
func (s *LocalStore) Store(originalName string, r io.Reader, subdir string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("file is empty")
	}
	if strings.Contains(originalName, "..") {
		return "", fmt.Errorf("invalid file name: %s", originalName)
	}
	if strings.Contains(subdir, "..") {
		return "", fmt.Errorf("invalid target directory: %s", subdir)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := uuid.NewString() + ext

	targetDir := filepath.Join(s.root, filepath.FromSlash(subdir))
	if !s.insideRoot(targetDir) {
		return "", fmt.Errorf("target escapes media root: %s", subdir)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create target directory: %w", err)
	}

	target := filepath.Join(targetDir, filename)
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	relative, err := filepath.Rel(s.root, target)
	if err != nil {
		return "", err
	}
	return s.publicPrefix + "/" + filepath.ToSlash(relative), nil
}

// Delete removes a stored file given its public URL. Absolute URLs are
// reduced to their path; paths outside the media root are refused. A
// missing file is not an error.
func (s *LocalStore) Delete(fileURL string) error {
	if strings.TrimSpace(fileURL) == "" {
		return fmt.Errorf("file url is empty")
	}

	relative := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		relative = u.Path
	}
	// only strip a whole path segment: "/mediafoo/x" must not become "foo/x"
	if strings.HasPrefix(relative, s.publicPrefix+"/") {
		relative = strings.TrimPrefix(relative, s.publicPrefix+"/")
	}
	relative = strings.TrimPrefix(relative, "/")

	target := filepath.Join(s.root, filepath.FromSlash(relative))
	if !s.insideRoot(target) {
		s.logger.Warn("refusing to delete outside media root", zap.String("url", fileURL))
		return fmt.Errorf("path escapes media root: %s", fileURL)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) insideRoot(target string) bool {
	clean := filepath.Clean(target)
	return clean == s.root || strings.HasPrefix(clean, s.root+string(filepath.Separator))
}
