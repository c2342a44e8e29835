// Package registry is a client for the asset registry (iconik) collection API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/reelsync/pkg/metrics"
)

const maxResponseSize = 5 * 1024 * 1024

const (
	searchPath      = "search/v1/search/"
	collectionsPath = "assets/v1/collections/"
	currentUserPath = "users/v1/users/current/"
)

// Client calls the registry REST API with app id and token authentication.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	appID   string
	token   string
	logger  *slog.Logger
}

// NewClient creates a Client from a finalized Config.
func NewClient(cfg *Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		baseURL: base,
		appID:   cfg.AppID,
		token:   cfg.AuthToken,
		logger:  logger.With("system", "registry"),
	}, nil
}

func (c *Client) FindCollection(ctx context.Context, parentID, externalID string) (*Collection, error) {
	terms := []searchTerm{
		{Name: "external_id", Value: externalID},
		{Name: "status", Value: StatusActive},
	}
	if parentID != "" {
		terms = append(terms, searchTerm{Name: "parent_id", Value: parentID})
	}

	found, err := c.search(ctx, "find_collection", terms)
	if err != nil {
		return nil, err
	}
	if parentID == "" {
		found = topLevel(found)
	}
	return matchExternalID(found, externalID, true), nil
}

func (c *Client) FindCollectionByAncestor(ctx context.Context, ancestorID, externalID string) (*Collection, error) {
	terms := []searchTerm{
		{Name: "external_id", Value: externalID},
		{Name: "status", Value: StatusActive},
	}
	if ancestorID != "" {
		terms = append(terms, searchTerm{Name: "ancestor_collections", Value: ancestorID})
	}

	found, err := c.search(ctx, "find_collection_by_ancestor", terms)
	if err != nil {
		return nil, err
	}
	return matchExternalID(found, externalID, false), nil
}

func (c *Client) CreateCollection(ctx context.Context, parentID, externalID, title string) (*Collection, error) {
	body := createRequest{
		Title:      title,
		ParentID:   parentID,
		ExternalID: externalID,
	}

	var created Collection
	if err := c.do(ctx, "create_collection", http.MethodPost, collectionsPath, body, &created); err != nil {
		return nil, err
	}

	c.logger.Info(
		"collection created",
		"id", created.ID,
		"external_id", externalID,
		"parent_id", parentID,
	)
	return &created, nil
}

func (c *Client) SetDescription(ctx context.Context, collectionID, text string) error {
	path := collectionsPath + url.PathEscape(collectionID) + "/"
	return c.do(ctx, "set_description", http.MethodPatch, path, updateRequest{Description: text}, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "current_user", http.MethodGet, currentUserPath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) search(ctx context.Context, op string, terms []searchTerm) ([]Collection, error) {
	body := searchRequest{
		DocTypes: []string{"collections"},
		Filter: searchFilter{
			Operator: "AND",
			Terms:    terms,
		},
	}

	var resp searchResponse
	if err := c.do(ctx, op, http.MethodPost, searchPath+"?per_page=50", body, &resp); err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

// topLevel keeps the collections that have no parent.
func topLevel(found []Collection) []Collection {
	out := found[:0]
	for _, col := range found {
		if col.ParentID == "" {
			out = append(out, col)
		}
	}
	return out
}

// matchExternalID picks the first exact external id match among active
// collections. With allowPrefix, the first prefix match is the fallback.
func matchExternalID(found []Collection, externalID string, allowPrefix bool) *Collection {
	var prefixed *Collection
	for i := range found {
		col := &found[i]
		if col.Status != "" && col.Status != StatusActive {
			continue
		}
		if col.ExternalID == externalID {
			return col
		}
		if allowPrefix && prefixed == nil && strings.HasPrefix(col.ExternalID, externalID) {
			prefixed = col
		}
	}
	return prefixed
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, op, method, path, body, out)

	metrics.RegistryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RegistryRequests.WithLabelValues(op, outcome).Inc()

	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) error {
	target, err := c.baseURL.Parse(path)
	if err != nil {
		return &Error{Op: op, Message: "invalid request path", Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return &Error{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("App-ID", c.appID)
	req.Header.Set("Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("registry request failed", "op", op, "method", method, "error", err)
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	c.logger.Debug("registry request", "op", op, "method", method, "status", resp.StatusCode)

	if resp.StatusCode >= 300 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func errorMessage(data []byte, status string) string {
	var parsed errorResponse
	if err := json.Unmarshal(data, &parsed); err == nil && len(parsed.Errors) > 0 {
		return strings.Join(parsed.Errors, "; ")
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 512 {
		return text
	}
	return status
}
