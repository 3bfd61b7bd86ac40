package guests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityProvider provisions a hosted-auth user for a new guest email.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email string) (uuid.UUID, error)
}

// SupabaseAdmin creates auth users through the hosted auth admin API.
type SupabaseAdmin struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseUserResponse struct {
	ID string `json:"id"`
}

func (c *SupabaseAdmin) CreateUser(ctx context.Context, email string) (uuid.UUID, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return uuid.Nil, fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return uuid.Nil, fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/auth/v1/admin/users"
	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"email":         email,
		"email_confirm": true,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return uuid.Nil, err
	}
	// Same headers as supabase-js admin client: apikey and Bearer carry the service_role key.
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return uuid.Nil, fmt.Errorf("supabase auth error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	var data supabaseUserResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return uuid.Nil, fmt.Errorf("supabase response decode: %w", err)
	}
	id, err := uuid.Parse(data.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("supabase returned invalid user id %q", data.ID)
	}
	return id, nil
}

// LocalIdentity mints ids locally. Used when no hosted auth is configured.
type LocalIdentity struct{}

func (LocalIdentity) CreateUser(ctx context.Context, email string) (uuid.UUID, error) {
	return uuid.New(), nil
}
