package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TokenVerifier resolves a bearer token to a stable user id.
type TokenVerifier interface {
	UserFromToken(ctx context.Context, token string) (string, error)
}

// HTTPVerifier validates tokens against an external userinfo endpoint. The
// endpoint is the source of truth; no local token parsing happens here.
type HTTPVerifier struct {
	client      *http.Client
	userinfoURL string
	tracer      trace.Tracer
}

func NewHTTPVerifier(userinfoURL string, tracer trace.Tracer) *HTTPVerifier {
	return &HTTPVerifier{
		client:      &http.Client{Timeout: 10 * time.Second},
		userinfoURL: userinfoURL,
		tracer:      tracer,
	}
}

func (v *HTTPVerifier) UserFromToken(ctx context.Context, token string) (string, error) {
	_, span := v.tracer.Start(ctx, "auth.user-from-token")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("empty bearer token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("userinfo rejected token: %d %s", resp.StatusCode, string(body))
	}

	var info struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("parse userinfo: %w", err)
	}

	userID := info.ID
	if userID == "" {
		userID = info.Sub
	}
	if userID == "" {
		return "", fmt.Errorf("userinfo response has no user id")
	}
	return userID, nil
}
