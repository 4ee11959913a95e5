package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects below a directory served at baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		return nil, ErrInvalidConfig
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &LocalStorage{dir: abs, baseURL: strings.TrimSuffix(baseURL, "/") + "/"}, nil
}

// Dir returns the root directory, e.g. for http.FileServer.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Join(ErrFailedToStore, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", errors.Join(ErrFailedToStore, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", errors.Join(ErrFailedToStore, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.Join(ErrFailedToStore, err)
	}
	return s.URL(key), nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Join(ErrFailedToStore, err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return s.baseURL + key
}

func (s *LocalStorage) resolve(key string) (string, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(target, s.dir+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}
