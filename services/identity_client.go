// token-airdrop-system/services/identity_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPIdentityClient talks to the external identity service. It is the only
// collaborator the signup flow touches outside the store transaction.
type HTTPIdentityClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPIdentityClient reads IDENTITY_SERVICE_URL and
// IDENTITY_SERVICE_TOKEN from the environment.
func NewHTTPIdentityClient() (*HTTPIdentityClient, error) {
	baseURL := os.Getenv("IDENTITY_SERVICE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("IDENTITY_SERVICE_URL environment variable not set")
	}
	token := os.Getenv("IDENTITY_SERVICE_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("IDENTITY_SERVICE_TOKEN environment variable not set")
	}

	return &HTTPIdentityClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateIdentity registers email/password and returns the new identity id.
func (c *HTTPIdentityClient) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	url := fmt.Sprintf("%s/identities", c.BaseURL)

	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode identity response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("identity service returned empty id")
	}
	return out.ID, nil
}

// DeleteIdentity removes a previously created identity. Used only as the
// compensating action when a signup fails after identity creation.
func (c *HTTPIdentityClient) DeleteIdentity(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/identities/%s", c.BaseURL, id)

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
