package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultBucket holds drop photos and clips.
const DefaultBucket = "drop-media"

const signedURLTTLSeconds = 3600

var (
	ErrFileNameRequired = errors.New("file_name is required")
	ErrURLRequired      = errors.New("url is required")
	ErrInvalidMediaType = errors.New("Invalid media type")
	ErrDropNotFound     = errors.New("Drop not found")
	ErrNotFound         = errors.New("Media not found")
)

// Media types accepted by the gallery.
const (
	TypePhoto = "photo"
	TypeVideo = "video"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// StorageClient is what we need from hosted object storage.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// HTTPClient is a StorageClient backed by the Supabase storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign API
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": signedURLTTLSeconds,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		// anon key sent as Bearer; storage signing needs service_role
		if (resp.StatusCode == 400 || resp.StatusCode == 403) &&
			(strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized")) {
			return "", fmt.Errorf("supabase storage requires the service_role key, set SUPABASE_SECRET_KEY (raw body: %s)", bodyStr)
		}
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + "/storage/v1" + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// Service manages drop media: signed uploads, registration and approval.
type Service struct {
	DB          *gorm.DB
	Client      StorageClient
	SupabaseURL string
	Bucket      string
	Now         func() time.Time
}

func (s *Service) bucket() string {
	if s.Bucket != "" {
		return s.Bucket
	}
	return DefaultBucket
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// UploadResult is returned to the admin uploader.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// SafeFileName strips directories and characters storage paths should not carry.
func SafeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	return name
}

func (s *Service) dropExists(ctx context.Context, dropID uuid.UUID) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Drop{}).Where("id = ?", dropID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrDropNotFound
	}
	return nil
}

// SignUpload returns a signed upload URL under the drop's folder.
func (s *Service) SignUpload(ctx context.Context, dropID uuid.UUID, fileName string) (*UploadResult, error) {
	name := SafeFileName(fileName)
	if name == "" {
		return nil, ErrFileNameRequired
	}
	if err := s.dropExists(ctx, dropID); err != nil {
		return nil, err
	}
	objectPath := fmt.Sprintf("%s/%d-%s", dropID, s.now().UnixMilli(), name)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, s.bucket(), objectPath)
	if err != nil {
		return nil, err
	}
	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.SupabaseURL, "/"), s.bucket(), objectPath)
	return &UploadResult{UploadURL: signedURL, PublicURL: publicURL, Path: objectPath}, nil
}

// RegisterInput describes an uploaded file.
type RegisterInput struct {
	URL     string          `json:"url"`
	Type    string          `json:"type"`
	Caption string          `json:"caption"`
	Meta    json.RawMessage `json:"meta"`
}

// Register records uploaded media for a drop. New media waits for approval.
func (s *Service) Register(ctx context.Context, dropID uuid.UUID, in RegisterInput) (*domain.Media, error) {
	in.URL = strings.TrimSpace(in.URL)
	if in.URL == "" {
		return nil, ErrURLRequired
	}
	if in.Type == "" {
		in.Type = TypePhoto
	}
	if in.Type != TypePhoto && in.Type != TypeVideo {
		return nil, ErrInvalidMediaType
	}
	if err := s.dropExists(ctx, dropID); err != nil {
		return nil, err
	}
	m := domain.Media{
		DropID:  dropID,
		URL:     in.URL,
		Type:    in.Type,
		Caption: strings.TrimSpace(in.Caption),
	}
	if len(in.Meta) > 0 {
		m.Meta = datatypes.JSON(in.Meta)
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every media row for a drop, approved or not, newest first.
func (s *Service) List(ctx context.Context, dropID uuid.UUID) ([]domain.Media, error) {
	out := []domain.Media{}
	err := s.DB.WithContext(ctx).Where("drop_id = ?", dropID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// SetApproved publishes or hides a media row.
func (s *Service) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*domain.Media, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Media{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var m domain.Media
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a media row. The stored object is left in the bucket.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Media{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
