// Package s3 implements objectstore.ObjectStore against an S3-compatible
// endpoint via the MinIO SDK. S3 has no native compare-and-swap, so
// PutIfAbsent and CompareAndSwap are emulated with a stat-then-write
// sequence and documented as non-atomic: a racing writer can still
// interleave between the stat and the write. The commit protocol
// tolerates this because it always re-verifies the version hint after
// publishing (step 5 of the commit algorithm) and treats a mismatch as
// a retriable conflict regardless of how the race was detected.
package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/objectstore"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Config holds the connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Store adapts a MinIO client to objectstore.ObjectStore, scoping
// every path to a single bucket.
type Store struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// New connects to an S3-compatible endpoint and returns a Store scoped
// to cfg.Bucket. It does not create the bucket; callers that need it
// should call EnsureBucket first.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.New(errors.ObjectStoreCode("connect_failed"), "failed to create s3 client", err).
			AddContext("endpoint", cfg.Endpoint)
	}
	return &Store{client: client, bucket: cfg.Bucket, logger: logger.With().Str("component", "objectstore-s3").Logger()}, nil
}

// EnsureBucket creates the backing bucket if it does not already exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.New(errors.ObjectStoreCode("bucket_check_failed"), "failed to check bucket existence", err).AddContext("bucket", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: ""}); err != nil {
		return errors.New(errors.ObjectStoreCode("bucket_create_failed"), "failed to create bucket", err).AddContext("bucket", s.bucket)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.New(errors.ObjectStoreCode("get_failed"), "failed to open object", err).AddContext("path", path)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.NotFound("object not found").AddContext("path", path)
		}
		return nil, errors.New(errors.ObjectStoreCode("get_failed"), "failed to read object", err).AddContext("path", path)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return errors.New(errors.ObjectStoreCode("put_failed"), "failed to write object", err).AddContext("path", path)
	}
	return nil
}

// PutIfAbsent stats the object first and refuses if found. This is a
// check-then-act race on S3; see the package doc comment.
func (s *Store) PutIfAbsent(ctx context.Context, path string, data []byte) error {
	if exists, err := s.exists(ctx, path); err != nil {
		return err
	} else if exists {
		return errors.Conflict("object already exists").AddContext("path", path)
	}
	return s.Put(ctx, path, data)
}

// CompareAndSwap reads the current contents and compares before
// writing. Like PutIfAbsent, this is not atomic on S3; the commit
// protocol's post-publish re-read closes the remaining gap.
func (s *Store) CompareAndSwap(ctx context.Context, path string, expected, newData []byte) error {
	current, err := s.Get(ctx, path)
	if expected == nil {
		if err == nil {
			return errors.Conflict("object already exists").AddContext("path", path)
		}
		if !errors.IsCode(err, errors.CommonNotFound) {
			return err
		}
	} else {
		if err != nil {
			return errors.New(errors.CommonConflict, "compare-and-swap target missing", err).AddContext("path", path)
		}
		if !bytes.Equal(current, expected) {
			return errors.Conflict("compare-and-swap mismatch").AddContext("path", path)
		}
	}
	return s.Put(ctx, path, newData)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return errors.New(errors.ObjectStoreCode("delete_failed"), "failed to delete object", err).AddContext("path", path)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.New(errors.ObjectStoreCode("list_failed"), "failed to list objects", obj.Err).AddContext("prefix", prefix)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (s *Store) Capabilities() objectstore.Capabilities {
	return objectstore.Capabilities{AtomicPutIfAbsent: false, AtomicCompareAndSwap: false}
}

func (s *Store) exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.New(errors.ObjectStoreCode("stat_failed"), "failed to stat object", err).AddContext("path", path)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey"
}

var _ objectstore.ObjectStore = (*Store)(nil)
