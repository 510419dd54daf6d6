package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalFileStore keeps files under root, one directory per kind, served
// under urlPrefix.
type LocalFileStore struct {
	root      string
	urlPrefix string
}

func (s *LocalFileStore) Save(ctx context.Context, kind string, file File) (string, error) {
	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := newFileName(file.Ext)
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, file.Reader); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, kind, name), nil
}

// localPath maps a served path back to the file system, refusing paths that
// escape root.
func (s *LocalFileStore) localPath(servedPath string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+servedPath), path.Clean(s.urlPrefix)+"/")
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), true
}

func (s *LocalFileStore) Remove(ctx context.Context, servedPath string) error {
	p, ok := s.localPath(servedPath)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func NewLocalFileStore(root, urlPrefix string) *LocalFileStore {
	return &LocalFileStore{root: root, urlPrefix: urlPrefix}
}
