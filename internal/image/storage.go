package image

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/fekuna/omnipos-catalog-service/config"
)

const contentTypeJPEG = "image/jpeg"

// Storage persists processed images under dir/name.
type Storage interface {
	Save(ctx context.Context, dir, name string, data []byte) error
}

type DiskStorage struct {
	Root string
}

func NewDiskStorage(root string) *DiskStorage {
	return &DiskStorage{Root: root}
}

func (d *DiskStorage) Save(ctx context.Context, dir, name string, data []byte) error {
	target := filepath.Join(d.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, "image: create %s", target)
	}
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return errors.Wrapf(err, "image: write %s", name)
	}
	return nil
}

type S3Storage struct {
	client s3iface.S3API
	bucket string
}

func NewS3Storage(client s3iface.S3API, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket}
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint.
func NewS3Client(cfg config.StorageConfig) (*s3.S3, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.S3AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return s3.New(sess), nil
}

func (s *S3Storage) Save(ctx context.Context, dir, name string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path.Join(dir, name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentTypeJPEG),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return errors.Wrapf(err, "image: upload %s/%s", dir, name)
	}
	return nil
}

// S3PublicURL is the base URL objects of the bucket are served from.
func S3PublicURL(cfg config.StorageConfig) string {
	if cfg.S3Endpoint != "" {
		return fmt.Sprintf("%s/%s", cfg.S3Endpoint, cfg.S3Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}
