package enforcement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Remote drives a router's administrative API. Non-2xx responses and
// transport failures both surface as errors; the router is expected to make
// repeated allow/revoke calls converge on its side.
type Remote struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

type remoteRequest struct {
	DeviceID string `json:"deviceId"`
	IP       string `json:"ip"`
}

func NewRemote(baseURL, token string, logger zerolog.Logger) (*Remote, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote enforcement backend requires an endpoint URL")
	}
	return &Remote{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With().Str("backend", "remote").Logger(),
	}, nil
}

func (r *Remote) Allow(ctx context.Context, deviceID, ip string) error {
	return r.post(ctx, "/allow", deviceID, ip)
}

func (r *Remote) Revoke(ctx context.Context, deviceID, ip string) error {
	return r.post(ctx, "/revoke", deviceID, ip)
}

func (r *Remote) post(ctx context.Context, path, deviceID, ip string) error {
	payload, err := json.Marshal(remoteRequest{DeviceID: deviceID, IP: ip})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("router call %s for %s: %w", path, deviceID, err)
	}
	defer func() {
		// Drain before closing so the transport can reuse the connection.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("router call %s for %s returned %s", path, deviceID, resp.Status)
	}
	r.logger.Debug().Str("device_id", deviceID).Str("ip", ip).Str("path", path).Msg("router call ok")
	return nil
}
