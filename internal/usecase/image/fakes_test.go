package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"snapvault/internal/entity"
	"snapvault/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

type fakeBlobRepo struct {
	mu sync.Mutex

	objects      map[string][]byte
	contentTypes map[string]string

	failPresignGet bool
}

func newFakeBlobRepo() *fakeBlobRepo {
	return &fakeBlobRepo{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeBlobRepo) put(key string, data []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = data
	f.contentTypes[key] = contentType
}

func (f *fakeBlobRepo) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[key]

	return ok
}

func (f *fakeBlobRepo) keysWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}

	return keys
}

func (f *fakeBlobRepo) Exists(_ context.Context, key string) (bool, error) {
	return f.has(key), nil
}

func (f *fakeBlobRepo) Stat(_ context.Context, key string) (int64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return 0, "", errs.ErrObjectNotFound
	}

	return int64(len(data)), f.contentTypes[key], nil
}

func (f *fakeBlobRepo) Upload(_ context.Context, key string, data io.Reader, contentType string, _ int64) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return err
	}

	f.put(key, buf.Bytes(), contentType)

	return nil
}

func (f *fakeBlobRepo) UploadBytes(_ context.Context, key string, data []byte, contentType string) error {
	f.put(key, data, contentType)

	return nil
}

func (f *fakeBlobRepo) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return nil, errs.ErrObjectNotFound
	}

	return data, nil
}

func (f *fakeBlobRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, key)
	delete(f.contentTypes, key)

	return nil
}

func (f *fakeBlobRepo) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (f *fakeBlobRepo) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.failPresignGet {
		return "", fmt.Errorf("presign unavailable")
	}

	return "https://storage.test/get/" + key, nil
}

func (f *fakeBlobRepo) PublicURL(key string) string {
	return "https://storage.test/public/" + key
}

type fakeMetadataRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entity.Image

	// when > 0, that many GetByOwnerAndHash calls report not-found even if
	// a matching record exists, forcing callers onto the insert path
	missLookups int
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{byID: make(map[uuid.UUID]*entity.Image)}
}

func (f *fakeMetadataRepo) Create(_ context.Context, image *entity.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.byID {
		if existing.OwnerID == image.OwnerID && existing.ContentHash == image.ContentHash {
			return errs.ErrDuplicateImage
		}
	}

	cp := *image
	f.byID[image.ID] = &cp

	return nil
}

func (f *fakeMetadataRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	cp := *img

	return &cp, nil
}

func (f *fakeMetadataRepo) GetByOwnerAndHash(_ context.Context, ownerID uuid.UUID, contentHash string) (*entity.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.missLookups > 0 {
		f.missLookups--

		return nil, errs.ErrRecordNotFound
	}

	for _, img := range f.byID {
		if img.OwnerID == ownerID && img.ContentHash == contentHash {
			cp := *img

			return &cp, nil
		}
	}

	return nil, errs.ErrRecordNotFound
}

func (f *fakeMetadataRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var owned []*entity.Image
	for _, img := range f.byID {
		if img.OwnerID == ownerID {
			cp := *img
			owned = append(owned, &cp)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit < len(owned) {
		owned = owned[:limit]
	}

	return owned, nil
}

func (f *fakeMetadataRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, img := range f.byID {
		if img.OwnerID == ownerID {
			count++
		}
	}

	return count, nil
}

func (f *fakeMetadataRepo) MarkReady(_ context.Context, id uuid.UUID, mimeType string, size int64, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.byID[id]
	if !ok || img.Status != entity.Pending {
		return errs.ErrRecordNotFound
	}

	img.MimeType = mimeType
	img.Size = size
	img.Width = &width
	img.Height = &height
	img.Status = entity.Ready

	return nil
}

func (f *fakeMetadataRepo) MarkFailedIfNotReady(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.byID[id]
	if !ok || img.Status == entity.Ready {
		return nil
	}

	img.Status = entity.Failed

	return nil
}

func (f *fakeMetadataRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return errs.ErrRecordNotFound
	}

	delete(f.byID, id)

	return nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *event
	f.events = append(f.events, &cp)

	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(_ context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pending []*entity.OutboxEvent
	for _, e := range f.events {
		if e.Status == entity.Pending && e.RetryCount < maxRetries && len(pending) < limit {
			cp := *e
			pending = append(pending, &cp)
		}
	}

	return pending, nil
}

func (f *fakeOutboxRepo) MarkAsProcessingBatch(_ context.Context, ids uuid.UUIDs) error {
	return f.setStatus(ids, entity.Processing)
}

func (f *fakeOutboxRepo) MarkAsProcessedBatch(_ context.Context, ids uuid.UUIDs) error {
	return f.setStatus(ids, entity.Processed)
}

func (f *fakeOutboxRepo) IncrementRetryCountBatch(_ context.Context, ids uuid.UUIDs) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.events {
		for _, id := range ids {
			if e.ID == id {
				e.Status = entity.Pending
				e.RetryCount++
			}
		}
	}

	return nil
}

func (f *fakeOutboxRepo) MarkMaxRetriesAsFailed(_ context.Context, maxRetries int) (uuid.UUIDs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var imageIDs uuid.UUIDs
	for _, e := range f.events {
		if e.Status == entity.Pending && e.RetryCount >= maxRetries {
			e.Status = entity.Failed
			imageIDs = append(imageIDs, e.AggregateID)
		}
	}

	return imageIDs, nil
}

func (f *fakeOutboxRepo) DeleteOldProcessedAndFailed(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeOutboxRepo) setStatus(ids uuid.UUIDs, status entity.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.events {
		for _, id := range ids {
			if e.ID == id {
				e.Status = status
			}
		}
	}

	return nil
}

func (f *fakeOutboxRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.events)
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
