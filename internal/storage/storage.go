// Package storage keeps uploaded food images.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store saves images and resolves their public URL.
type Store interface {
	// Put stores r under a generated name derived from filename and returns its reference.
	Put(ctx context.Context, filename string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// objectName builds a collision-free name that keeps the original extension.
func objectName(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString()[:8], ext)
}

// validRef rejects references that could escape the store root.
func validRef(ref string) bool {
	return ref != "" && !strings.Contains(ref, "..") && !strings.ContainsAny(ref, `/\`)
}
