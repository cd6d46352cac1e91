package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"snapvault/pkg/s3client"
	"snapvault/pkg/types/errs"
)

// BlobRepo is the S3 implementation of the object-storage capability.
// publicURL, when set, replaces the internal endpoint in minted URLs so
// clients behind a different network boundary can reach them.
type BlobRepo struct {
	*s3client.S3Client
	bucket    string
	publicURL string
}

func NewBlobRepo(s3c *s3client.S3Client, bucket, publicURL string) *BlobRepo {
	return &BlobRepo{s3c, bucket, publicURL}
}

func (r *BlobRepo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("BlobRepo - Exists - r.Client.HeadObject: %w", err)
	}

	return true, nil
}

func (r *BlobRepo) Stat(ctx context.Context, key string) (int64, string, error) {
	head, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, "", fmt.Errorf("BlobRepo - Stat: %w", errs.ErrObjectNotFound)
		}
		return 0, "", fmt.Errorf("BlobRepo - Stat - r.Client.HeadObject: %w", err)
	}

	return aws.ToInt64(head.ContentLength), aws.ToString(head.ContentType), nil
}

func (r *BlobRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("BlobRepo - Upload - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *BlobRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("BlobRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *BlobRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("BlobRepo - DownloadBytes: %w", errs.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("BlobRepo - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("BlobRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *BlobRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("BlobRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}

func (r *BlobRepo) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := r.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("BlobRepo - PresignPut - r.Presign.PresignPutObject: %w", err)
	}

	return r.rewrite(req.URL), nil
}

func (r *BlobRepo) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("BlobRepo - PresignGet - r.Presign.PresignGetObject: %w", err)
	}

	return r.rewrite(req.URL), nil
}

func (r *BlobRepo) PublicURL(key string) string {
	base := r.publicURL
	if base == "" {
		base = r.Endpoint()
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), r.bucket, key)
}

// rewrite swaps the internal endpoint for the public one in URLs handed to
// clients.
func (r *BlobRepo) rewrite(url string) string {
	if r.publicURL == "" || r.publicURL == r.Endpoint() {
		return url
	}

	return strings.Replace(url, r.Endpoint(), r.publicURL, 1)
}
