package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage хранит файлы в каталоге на диске.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage создаёт каталог basePath, если его нет.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

// Save записывает файл, создавая промежуточные каталоги.
func (s *LocalStorage) Save(ctx context.Context, key string, reader io.Reader, _ string) error {
	const op = "filestore.LocalStorage.Save"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fullPath, err := s.fullPath(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get открывает файл.
func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	const op = "filestore.LocalStorage.Get"
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return file, nil
}

// Delete удаляет файл.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	const op = "filestore.LocalStorage.Delete"
	fullPath, err := s.fullPath(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Exists проверяет наличие файла.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
