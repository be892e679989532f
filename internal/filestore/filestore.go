// Package filestore сохраняет загруженные пользователями файлы квитанций
// в локальный каталог или в S3-совместимое хранилище.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
)

// ErrInvalidKey ключ файла пуст или выходит за пределы хранилища.
var ErrInvalidKey = errors.New("invalid file key")

// Storage интерфейс хранилища файлов.
type Storage interface {
	// Save сохраняет содержимое reader под ключом key.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Get открывает файл на чтение.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет файл; отсутствие файла ошибкой не считается.
	Delete(ctx context.Context, key string) error
	// Exists сообщает, существует ли файл.
	Exists(ctx context.Context, key string) (bool, error)
}

// New создаёт хранилище по типу из конфигурации: local или s3.
func New(cfg config.FileStore) (Storage, error) {
	const op = "filestore.New"
	switch cfg.Type {
	case "", "local":
		s, err := NewLocalStorage(cfg.BasePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case "s3":
		s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown storage type %q", op, cfg.Type)
	}
}

// cleanKey нормализует ключ и запрещает выход за корень хранилища.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
