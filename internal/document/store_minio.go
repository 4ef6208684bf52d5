// Package document implements the external document store boundary: upload
// of unsigned PDFs, fetch by id, and persistence of signed artifacts keyed by
// action, document number and officer.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"servicebook/internal/platform/config"
	"servicebook/internal/signing"
	"servicebook/pkg/platform/sentinel"
)

const contentTypePDF = "application/pdf"

// MinioStore keeps documents in a MinIO bucket. Unsigned uploads live under
// documents/, signed artifacts under signed/.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinio(ctx context.Context, cfg config.DocumentConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check document bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create document bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Upload(ctx context.Context, content []byte) (string, error) {
	docID := uuid.NewString()
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(docID), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentTypePDF})
	if err != nil {
		return "", fmt.Errorf("upload document: %w: %w", sentinel.ErrUnavailable, err)
	}
	return docID, nil
}

func (s *MinioStore) Fetch(ctx context.Context, docID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(docID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return content, nil
}

func (s *MinioStore) PersistSigned(ctx context.Context, ref signing.SignedRef, content []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, signedKey(ref), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentTypePDF})
	if err != nil {
		return fmt.Errorf("persist signed document: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// FetchSigned retrieves a previously persisted signed artifact.
func (s *MinioStore) FetchSigned(ctx context.Context, ref signing.SignedRef) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, signedKey(ref), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch signed document: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read signed document: %w", err)
	}
	return content, nil
}

func objectKey(docID string) string {
	return "documents/" + docID + ".pdf"
}

func signedKey(ref signing.SignedRef) string {
	return fmt.Sprintf("signed/%s/%s/%s.pdf", ref.OfficerID, ref.Action, ref.DocumentNumber)
}
