// Package storage provides object storage access for profile, room, and content images.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"interhub/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SignedURLExpiry is how long a signed read URL stays valid. The original
// deployment used an effectively unlimited expiry; the S3 presign protocol
// caps it at seven days, so that is the ceiling here.
const SignedURLExpiry = 7 * 24 * time.Hour

// ObjectKey returns the storage key for an entity's image object.
// Layout: one object per entity, keyed by the entity's numeric ID.
func ObjectKey(entityID uint) string {
	return fmt.Sprintf("%d.img", entityID)
}

// ObjectStore provides access to a single bucket of object storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Buckets groups the three image stores the application uses.
type Buckets struct {
	ProfileImages ObjectStore
	RoomImages    ObjectStore
	ContentImages ObjectStore
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// Options configure the connection shared by all bucket stores.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinioBuckets connects to the storage endpoint once and returns a store
// per bucket, creating any bucket that does not exist yet.
func NewMinioBuckets(opts Options, profileBucket, roomBucket, contentBucket string) (*Buckets, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	stores := make([]*MinioStore, 0, 3)
	for _, name := range []string{profileBucket, roomBucket, contentBucket} {
		store, err := newMinioStore(client, name)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}

	buckets := &Buckets{}
	buckets.ProfileImages = stores[0]
	buckets.RoomImages = stores[1]
	buckets.ContentImages = stores[2]
	return buckets, nil
}

func newMinioStore(client *minio.Client, bucket string) (*MinioStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put uploads an object.
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	observability.StorageOperations.WithLabelValues("put", m.bucket).Inc()
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		observability.StorageOperationErrors.WithLabelValues("put", m.bucket).Inc()
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PresignGet generates a pre-signed GET URL.
func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	observability.StorageOperations.WithLabelValues("presign", m.bucket).Inc()
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		observability.StorageOperationErrors.WithLabelValues("presign", m.bucket).Inc()
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	observability.StorageOperations.WithLabelValues("delete", m.bucket).Inc()
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		observability.StorageOperationErrors.WithLabelValues("delete", m.bucket).Inc()
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
