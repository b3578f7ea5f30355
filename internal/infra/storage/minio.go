package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

const reportPrefix = "reports"

// Store archives reports in a MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string

	// PresignExpiry > 0 makes Save return a presigned GET URL instead of the plain object URL.
	PresignExpiry time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Save implementasi analysis.ArtifactSaver: upload report ke bucket, balikin URL-nya.
func (s *Store) Save(ctx context.Context, a *analysis.ReportArtifact) (string, error) {
	key := objectKey(uuid.NewString(), a.Filename)
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(a.Data), int64(len(a.Data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", a.Filename),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report: %w", err)
	}
	log.Printf("report archived bucket=%s key=%s bytes=%d", s.bucketName, key, len(a.Data))

	if s.PresignExpiry > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.PresignExpiry, nil)
		if err != nil {
			return "", fmt.Errorf("presigning report url: %w", err)
		}
		return u.String(), nil
	}

	// URL publik (jika bucket public), kalau private pakai PresignExpiry
	endpoint := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, s.bucketName, key), nil
}

func objectKey(id, filename string) string {
	return path.Join(reportPrefix, id, path.Base(filename))
}
