package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore persists report photographs. The report boundary only needs a
// key back; serving the image is the bucket's problem.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// S3Service stores report images in an S3-compatible bucket via MinIO.
type S3Service struct {
	client *minio.Client
	bucket string
}

// NewS3Service connects to the MinIO endpoint configured in the environment.
// Returns nil, nil when MINIO_ENDPOINT is unset so deployments without object
// storage degrade to key-less reports instead of refusing to boot.
func NewS3Service() (*S3Service, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "report-images"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc := &S3Service{client: client, bucket: bucket}
	if err := svc.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Connected to MinIO endpoint:", endpoint)
	return svc, nil
}

func (s *S3Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %v", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("error creating bucket %s: %v", s.bucket, err)
		}
	}
	return nil
}

// Put stores one image under key and returns the object key.
func (s *S3Service) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %v", key, err)
	}
	return key, nil
}
