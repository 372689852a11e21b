package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with the
// resolved base URL and request timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Register implements [ServerAdapter]. It POSTs the user credentials to
// POST /api/auth/register. On success the bearer token is extracted from the
// Authorization response header and stored via SetToken.
func (h *httpServerAdapter) Register(ctx context.Context, user models.User) (models.User, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		Post("/api/auth/register")
	if err != nil {
		return models.User{}, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	return h.adoptToken(resp, user)
}

// Login implements [ServerAdapter]. It POSTs the credentials to
// POST /api/auth/login. On success the bearer token is extracted from the
// Authorization response header and stored via SetToken.
func (h *httpServerAdapter) Login(ctx context.Context, user models.User) (models.User, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		Post("/api/auth/login")
	if err != nil {
		return models.User{}, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	return h.adoptToken(resp, user)
}

// adoptToken extracts and stores the bearer token from an auth response and
// fills user.UserID from the token subject.
func (h *httpServerAdapter) adoptToken(resp *resty.Response, user models.User) (models.User, error) {
	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.User{}, fmt.Errorf("parse bearer token: %w", err)
	}

	userID, err := utils.ParseUserIDFromJWT(token)
	if err != nil {
		return models.User{}, fmt.Errorf("parse user id from token: %w", err)
	}

	h.SetToken(token)
	user.UserID = userID
	user.Password = ""
	return user, nil
}

// Push implements [ServerAdapter]. It POSTs the pending batch to
// POST /api/sync/push and returns the server's per-operation verdict.
func (h *httpServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Device-ID", req.DeviceID).
		SetBody(req).
		Post("/api/sync/push")
	if err != nil {
		return models.PushResult{}, fmt.Errorf("push request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResult{}, err
	}

	var pushResponse models.PushResponse
	if err = json.Unmarshal(resp.Body(), &pushResponse); err != nil {
		return models.PushResult{}, fmt.Errorf("decode push response: %w", err)
	}

	return pushResponse.Success, nil
}

// Pull implements [ServerAdapter]. It GETs /api/sync/pull with the checkpoint
// and device id as query parameters and decodes the missed operations.
func (h *httpServerAdapter) Pull(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("X-Device-ID", deviceID).
		SetQueryParam("since", strconv.FormatInt(since, 10)).
		SetQueryParam("deviceId", deviceID).
		Get("/api/sync/pull")
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResponse{}, err
	}

	var pullResponse models.PullResponse
	if err = json.Unmarshal(resp.Body(), &pullResponse); err != nil {
		return models.PullResponse{}, fmt.Errorf("decode pull response: %w", err)
	}

	return pullResponse, nil
}

// Resolve implements [ServerAdapter]. It POSTs the resolution choice to
// POST /api/sync/resolve and returns the authoritative record.
func (h *httpServerAdapter) Resolve(ctx context.Context, req models.ResolveRequest) (models.EntityRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/sync/resolve")
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("resolve request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EntityRecord{}, err
	}

	var record models.EntityRecord
	if err = json.Unmarshal(resp.Body(), &record); err != nil {
		return models.EntityRecord{}, fmt.Errorf("decode resolve response: %w", err)
	}

	return record, nil
}

// ServerVersion implements [ServerAdapter]. It GETs /api/version and returns
// the plain-text version string.
func (h *httpServerAdapter) ServerVersion(ctx context.Context) (string, error) {
	resp, err := h.client.R().SetContext(ctx).Get("/api/version")
	if err != nil {
		return "", fmt.Errorf("version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return strings.TrimSpace(string(resp.Body())), nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
