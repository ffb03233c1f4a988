package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarSize   = 5 * 1024 * 1024
	avatarKeyPrefix = "profiles"
)

var (
	ErrFileTooBig      = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType = errors.New("only JPEG and PNG images are allowed")

	avatarContentTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
)

// StorageService stores profile avatars for creators and brands.
type StorageService interface {
	UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64, contentType string) (string, error)
	DeleteAvatar(ctx context.Context, objectKey string) error
	AvatarURL(ctx context.Context, objectKey string) (string, error)
}

type MinioStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

type MinioStorageService struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

func NewMinioStorageService(cfg MinioStorageConfig) (*MinioStorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	svc := &MinioStorageService{client: client, bucket: cfg.Bucket, urlExpiry: cfg.URLExpiry}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return svc, nil
}

func (s *MinioStorageService) UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64, contentType string) (string, error) {
	if fileSize > maxAvatarSize {
		return "", ErrFileTooBig
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := avatarContentTypes[ct]
	if !ok {
		return "", ErrInvalidFileType
	}

	objectKey := fmt.Sprintf("%s/user-%d/%s%s", avatarKeyPrefix, userID, uuid.NewString(), ext)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, file, fileSize, minio.PutObjectOptions{
		ContentType: ct,
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return objectKey, nil
}

func (s *MinioStorageService) DeleteAvatar(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

func (s *MinioStorageService) AvatarURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", errors.New("empty object key")
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign avatar url: %w", err)
	}
	return presigned.String(), nil
}
