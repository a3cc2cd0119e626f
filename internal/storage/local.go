package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images into a directory that the router serves under a URL prefix.
type LocalStore struct {
	root    string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates root if needed. baseURL is the public prefix, e.g. "/images".
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory holding the images.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(_ context.Context, filename string, r io.Reader, _ string) (string, error) {
	name := objectName(filename)
	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("storage/local: create %s: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage/local: write %s: %w", name, err)
	}
	return name, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return fmt.Errorf("storage/local: invalid reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.root, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", ref, err)
	}
	return nil
}

func (s *LocalStore) URL(ref string) string {
	return s.baseURL + "/" + ref
}
