package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"snapvault/config"
	"snapvault/internal/controller/restapi/middleware"
	"snapvault/internal/dto"
	"snapvault/internal/entity"
	"snapvault/pkg/types/errs"
)

const _testSecret = "test-secret"

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

// stubImageUseCase satisfies usecase.ImageUseCase; tests override the
// function fields they exercise.
type stubImageUseCase struct {
	issueUploadURL func(ownerID uuid.UUID, filename, mimeType string) (*dto.UploadURL, error)
	confirmUpload  func(ownerID uuid.UUID, fileKey string) (*entity.Image, error)
	uploadDirect   func(ownerID uuid.UUID, filename, mimeType string, size int64) (*entity.Image, error)
	getImage       func(ownerID, id uuid.UUID) (*entity.Image, error)
	listImages     func(ownerID uuid.UUID, page int) (*dto.ImagePage, error)
	deleteImage    func(ownerID, id uuid.UUID) error
}

func (s *stubImageUseCase) IssueUploadURL(_ context.Context, ownerID uuid.UUID, filename, mimeType string) (*dto.UploadURL, error) {
	return s.issueUploadURL(ownerID, filename, mimeType)
}

func (s *stubImageUseCase) ConfirmUpload(_ context.Context, ownerID uuid.UUID, fileKey string) (*entity.Image, error) {
	return s.confirmUpload(ownerID, fileKey)
}

func (s *stubImageUseCase) UploadDirect(_ context.Context, ownerID uuid.UUID, filename, mimeType string, _ io.Reader, size int64) (*entity.Image, error) {
	return s.uploadDirect(ownerID, filename, mimeType, size)
}

func (s *stubImageUseCase) GetImage(_ context.Context, ownerID, id uuid.UUID) (*entity.Image, error) {
	return s.getImage(ownerID, id)
}

func (s *stubImageUseCase) ListImages(_ context.Context, ownerID uuid.UUID, page int) (*dto.ImagePage, error) {
	return s.listImages(ownerID, page)
}

func (s *stubImageUseCase) DeleteImage(_ context.Context, ownerID, id uuid.UUID) error {
	return s.deleteImage(ownerID, id)
}

func (s *stubImageUseCase) Present(_ context.Context, img *entity.Image) dto.ImageView {
	return dto.ImageView{
		ID:               img.ID,
		OriginalFilename: img.OriginalFilename,
		MimeType:         img.MimeType,
		FileSize:         img.Size,
		Status:           string(img.Status),
		CreatedAt:        img.CreatedAt.Format(time.RFC3339),
	}
}

func (s *stubImageUseCase) GetPendingEvents(_ context.Context, _, _ int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}
func (s *stubImageUseCase) MarkAsProcessingBatch(_ context.Context, _ []*entity.OutboxEvent) error {
	return nil
}
func (s *stubImageUseCase) MarkAsProcessedBatch(_ context.Context, _ []*entity.OutboxEvent) error {
	return nil
}
func (s *stubImageUseCase) IncrementRetryCountBatch(_ context.Context, _ []*entity.OutboxEvent) error {
	return nil
}
func (s *stubImageUseCase) MarkExhaustedAsFailed(_ context.Context, _ int) error { return nil }
func (s *stubImageUseCase) CleanupOutbox(_ context.Context) error                { return nil }

func newTestApp(stub *stubImageUseCase) *fiber.App {
	app := fiber.New()

	cfg := config.Upload{
		MaxFileSize:      5 * 1024 * 1024,
		AllowedMimeTypes: []string{"image/jpeg", "image/png"},
	}

	group := app.Group("/v1", middleware.Auth(_testSecret))
	NewImageRoutes(group, stub, cfg, nopLogger{})

	return app
}

func bearerToken(t *testing.T, ownerID uuid.UUID) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": ownerID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(_testSecret))
	require.NoError(t, err)

	return token
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAuthRejectsMissingAndForgedTokens(t *testing.T) {
	app := newTestApp(&stubImageUseCase{})

	resp := doJSON(t, app, http.MethodGet, "/v1/images", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	resp = doJSON(t, app, http.MethodGet, "/v1/images", forged, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadURLEndpoint(t *testing.T) {
	ownerID := uuid.New()

	stub := &stubImageUseCase{
		issueUploadURL: func(gotOwner uuid.UUID, filename, mimeType string) (*dto.UploadURL, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, "photo.png", filename)
			require.Equal(t, "image/png", mimeType)

			return &dto.UploadURL{
				UploadURL: "https://storage.test/put/uploads/x.png",
				FileKey:   "uploads/x.png",
			}, nil
		},
	}
	app := newTestApp(stub)
	token := bearerToken(t, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/v1/images/upload-url", token, fiber.Map{
		"filename":  "photo.png",
		"mime_type": "image/png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.UploadURL
	decodeBody(t, resp, &body)
	require.Equal(t, "uploads/x.png", body.FileKey)
	require.NotEmpty(t, body.UploadURL)
}

func TestUploadURLValidation(t *testing.T) {
	app := newTestApp(&stubImageUseCase{})
	token := bearerToken(t, uuid.New())

	resp := doJSON(t, app, http.MethodPost, "/v1/images/upload-url", token, fiber.Map{
		"filename":  "",
		"mime_type": "image/png",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/v1/images/upload-url", token, fiber.Map{
		"filename":  "clip.gif",
		"mime_type": "image/gif",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestConfirmUploadEndpoint(t *testing.T) {
	ownerID := uuid.New()
	record := &entity.Image{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		OriginalFilename: "photo.png",
		MimeType:         "image/png",
		Size:             2048,
		Status:           entity.Pending,
		CreatedAt:        time.Now(),
	}

	stub := &stubImageUseCase{
		confirmUpload: func(gotOwner uuid.UUID, fileKey string) (*entity.Image, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, "uploads/x.png", fileKey)

			return record, nil
		},
	}
	app := newTestApp(stub)
	token := bearerToken(t, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/v1/images/confirm", token, fiber.Map{
		"file_key": "uploads/x.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view dto.ImageView
	decodeBody(t, resp, &view)
	require.Equal(t, record.ID, view.ID)
	require.Equal(t, "pending", view.Status)
	require.Nil(t, view.URL)
}

func TestConfirmUploadErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing object", errs.ErrObjectNotFound, http.StatusUnprocessableEntity},
		{"oversized object", errs.ErrPayloadTooLarge, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubImageUseCase{
				confirmUpload: func(_ uuid.UUID, _ string) (*entity.Image, error) {
					return nil, tc.err
				},
			}
			app := newTestApp(stub)

			resp := doJSON(t, app, http.MethodPost, "/v1/images/confirm", bearerToken(t, uuid.New()), fiber.Map{
				"file_key": "uploads/x.png",
			})
			require.Equal(t, tc.wantCode, resp.StatusCode)
		})
	}
}

func TestConfirmUploadRequiresFileKey(t *testing.T) {
	app := newTestApp(&stubImageUseCase{})

	resp := doJSON(t, app, http.MethodPost, "/v1/images/confirm", bearerToken(t, uuid.New()), fiber.Map{
		"file_key": "",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestUploadImageEndpoint(t *testing.T) {
	ownerID := uuid.New()
	record := &entity.Image{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		OriginalFilename: "photo.png",
		MimeType:         "image/png",
		Status:           entity.Pending,
		CreatedAt:        time.Now(),
	}

	stub := &stubImageUseCase{
		uploadDirect: func(gotOwner uuid.UUID, filename, mimeType string, size int64) (*entity.Image, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, "photo.png", filename)
			require.Equal(t, "image/png", mimeType)

			return record, nil
		},
	}
	app := newTestApp(stub)

	body, contentType := multipartUpload(t, "photo.png", "image/png", []byte("image bytes"))

	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearerToken(t, ownerID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUploadImageRejectsBadType(t *testing.T) {
	app := newTestApp(&stubImageUseCase{})
	token := bearerToken(t, uuid.New())

	// disallowed mime type
	body, contentType := multipartUpload(t, "notes.txt", "text/plain", []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	// allowed mime type but disallowed extension
	body, contentType = multipartUpload(t, "photo.webp", "image/png", []byte("image bytes"))
	req = httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestGetImageEndpoint(t *testing.T) {
	ownerID := uuid.New()
	imageID := uuid.New()

	stub := &stubImageUseCase{
		getImage: func(gotOwner, gotID uuid.UUID) (*entity.Image, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, imageID, gotID)

			return &entity.Image{ID: imageID, OwnerID: ownerID, Status: entity.Ready, CreatedAt: time.Now()}, nil
		},
	}
	app := newTestApp(stub)

	resp := doJSON(t, app, http.MethodGet, "/v1/images/"+imageID.String(), bearerToken(t, ownerID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetImageErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing record", errs.ErrRecordNotFound, http.StatusNotFound},
		{"foreign owner", errs.ErrForbidden, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubImageUseCase{
				getImage: func(_, _ uuid.UUID) (*entity.Image, error) {
					return nil, tc.err
				},
			}
			app := newTestApp(stub)

			resp := doJSON(t, app, http.MethodGet, "/v1/images/"+uuid.NewString(), bearerToken(t, uuid.New()), nil)
			require.Equal(t, tc.wantCode, resp.StatusCode)
		})
	}
}

func TestGetImageRejectsMalformedID(t *testing.T) {
	app := newTestApp(&stubImageUseCase{})

	resp := doJSON(t, app, http.MethodGet, "/v1/images/not-a-uuid", bearerToken(t, uuid.New()), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListImagesEndpoint(t *testing.T) {
	ownerID := uuid.New()

	stub := &stubImageUseCase{
		listImages: func(gotOwner uuid.UUID, page int) (*dto.ImagePage, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, 2, page)

			return &dto.ImagePage{
				Data:        []dto.ImageView{},
				CurrentPage: 2,
				LastPage:    2,
				PerPage:     20,
				Total:       25,
			}, nil
		},
	}
	app := newTestApp(stub)

	resp := doJSON(t, app, http.MethodGet, "/v1/images?page=2", bearerToken(t, ownerID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page dto.ImagePage
	decodeBody(t, resp, &page)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 25, page.Total)
}

func TestDeleteImageEndpoint(t *testing.T) {
	ownerID := uuid.New()
	imageID := uuid.New()

	stub := &stubImageUseCase{
		deleteImage: func(gotOwner, gotID uuid.UUID) error {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, imageID, gotID)

			return nil
		},
	}
	app := newTestApp(stub)

	resp := doJSON(t, app, http.MethodDelete, "/v1/images/"+imageID.String(), bearerToken(t, ownerID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
