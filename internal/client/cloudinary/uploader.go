package cloudinary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"storyfeed/internal/domain"
)

// Config holds media host configuration.
type Config struct {
	Endpoint     string
	UploadPreset string
	Folder       string
	Timeout      time.Duration
}

// Uploader posts files to an unsigned Cloudinary upload endpoint.
type Uploader struct {
	httpClient   *http.Client
	endpoint     string
	uploadPreset string
	folder       string
	now          func() time.Time
	logger       *slog.Logger
}

type uploadResponse struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func New(cfg Config, logger *slog.Logger) *Uploader {
	return &Uploader{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		endpoint:     cfg.Endpoint,
		uploadPreset: cfg.UploadPreset,
		folder:       cfg.Folder,
		now:          time.Now,
		logger:       logger.With("client", "cloudinary"),
	}
}

// PublicID qualifies the file's base name with a millisecond timestamp.
func (u *Uploader) PublicID(file domain.MediaFile) string {
	return fmt.Sprintf("%d_%s", u.now().UnixMilli(), file.BaseName())
}

// Upload streams file to the media host and returns the normalized reference.
func (u *Uploader) Upload(ctx context.Context, file domain.MediaFile) (*domain.MediaRef, error) {
	if file.Body == nil {
		return nil, domain.NewValidationError("media", "Media file has no content")
	}

	publicID := u.PublicID(file)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(u.writeForm(mw, file, publicID))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload media: %w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	var payload uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || payload.Error != nil {
		msg := "Upload failed"
		if payload.Error != nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return nil, fmt.Errorf("%s (status %d): %w", msg, resp.StatusCode, domain.ErrNetwork)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w: %w", domain.ErrNetwork, decodeErr)
	}
	if payload.PublicID == "" || payload.SecureURL == "" {
		return nil, fmt.Errorf("incomplete upload response: %w", domain.ErrNetwork)
	}

	u.logger.Info("uploaded media",
		"public_id", payload.PublicID,
		"resource_type", payload.ResourceType,
		"bytes", file.Size,
	)

	return &domain.MediaRef{
		PublicID: payload.PublicID,
		URL:      payload.SecureURL,
		FileType: payload.ResourceType,
		Format:   payload.Format,
	}, nil
}

func (u *Uploader) writeForm(mw *multipart.Writer, file domain.MediaFile, publicID string) error {
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}

	fields := []struct{ key, value string }{
		{"upload_preset", u.uploadPreset},
		{"folder", u.folder},
		{"public_id", publicID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return err
		}
	}

	return mw.Close()
}
