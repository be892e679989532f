package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
)

// S3Storage хранит файлы в бакете S3-совместимого хранилища.
type S3Storage struct {
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
}

// NewS3Storage создаёт клиента по настройкам конфигурации. Endpoint задаётся
// для S3-совместимых хранилищ (MinIO, R2), для AWS его можно не указывать.
func NewS3Storage(cfg config.FileStore) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required for s3 storage")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return NewS3StorageWithClient(s3.New(sess), s3manager.NewUploader(sess), cfg.Bucket), nil
}

// NewS3StorageWithClient собирает хранилище из готовых клиентов.
func NewS3StorageWithClient(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket string) *S3Storage {
	return &S3Storage{client: client, uploader: uploader, bucket: bucket}
}

// Save загружает файл в бакет.
func (s *S3Storage) Save(ctx context.Context, key string, reader io.Reader, contentType string) error {
	const op = "filestore.S3Storage.Save"
	cleaned, err := cleanKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleaned),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get скачивает файл из бакета.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "filestore.S3Storage.Get"
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out.Body, nil
}

// Delete удаляет файл из бакета.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	const op = "filestore.S3Storage.Delete"
	cleaned, err := cleanKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Exists проверяет наличие файла запросом HEAD.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	const op = "filestore.S3Storage.Exists"
	cleaned, err := cleanKey(key)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		var aerr awserr.RequestFailure
		if errors.As(err, &aerr) && aerr.StatusCode() == 404 {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
