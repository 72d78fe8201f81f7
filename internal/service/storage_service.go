package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
)

const mediaPrefix = "uploads"

var ErrInvalidMediaRef = errors.New("invalid media reference")

// MediaStorage keeps uploaded media. References are relative paths of the
// form uploads/<id>.<ext>.
type MediaStorage interface {
	Save(ctx context.Context, data []byte, extension, mimeType string) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
	Remove(ctx context.Context, ref string) error
}

func NewMediaStorage(ctx context.Context, cfg config.Config) (MediaStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageR2:
		endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID)
		return NewR2Storage(ctx, cfg.R2, endpoint)
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.MediaDir), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

func newMediaRef(extension string) (string, error) {
	name, err := utils.GenerateFileName(extension)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return path.Join(mediaPrefix, name), nil
}

// cleanRef rejects references that would escape the media root.
func cleanRef(ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaRef, ref)
	}
	cleaned := path.Clean(ref)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaRef, ref)
	}
	return cleaned, nil
}

type localStorage struct {
	root string
}

func NewLocalStorage(root string) MediaStorage {
	return &localStorage{root: root}
}

func (s *localStorage) Save(ctx context.Context, data []byte, extension, mimeType string) (string, error) {
	ref, err := newMediaRef(extension)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return ref, nil
}

func (s *localStorage) Read(ctx context.Context, ref string) ([]byte, error) {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(cleaned)))
}

func (s *localStorage) Remove(ctx context.Context, ref string) error {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type r2Storage struct {
	client *s3.Client
	bucket string
}

func NewR2Storage(ctx context.Context, cfg config.R2, endpoint string) (MediaStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &r2Storage{client: client, bucket: cfg.BucketName}, nil
}

func (s *r2Storage) Save(ctx context.Context, data []byte, extension, mimeType string) (string, error) {
	ref, err := newMediaRef(extension)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ref),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return ref, nil
}

func (s *r2Storage) Read(ctx context.Context, ref string) ([]byte, error) {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *r2Storage) Remove(ctx context.Context, ref string) error {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
