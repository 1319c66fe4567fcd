// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/storyforge/storyforge/internal/story"
)

// PluginDTO is the backend's wire representation of a plugin.
type PluginDTO struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Version      string            `json:"version,omitempty"`
	Author       string            `json:"author,omitempty"`
	Description  string            `json:"description,omitempty"`
	Endpoint     string            `json:"endpoint,omitempty"`
	EntryPoint   string            `json:"entry_point,omitempty"`
	IsEnabled    bool              `json:"is_enabled,omitempty"`
	Status       string            `json:"status,omitempty"`
	Healthy      bool              `json:"healthy,omitempty"`
	LatencyMS    int64             `json:"latency_ms,omitempty"`
	LastPing     string            `json:"last_ping,omitempty"`
	Capabilities []CapabilityDTO   `json:"capabilities,omitempty"`
	Config       map[string]string `json:"config,omitempty"`
}

// CapabilityDTO is the backend's wire representation of a capability.
type CapabilityDTO struct {
	ID          int64  `json:"id,omitempty"`
	CapID       string `json:"cap_id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// PluginList is one page of the backend catalog.
type PluginList struct {
	Plugins  []PluginDTO `json:"plugins"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// CreatePluginRequest is the body of a registry connect call.
type CreatePluginRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Endpoint    string `json:"endpoint"`
	EntryPoint  string `json:"entry_point,omitempty"`
}

// MapPlugin translates a backend DTO into the in-memory Plugin entity.
//
// Defaults mirror the backend contract: missing version maps to "1.0.0",
// missing author to "Unknown", missing capability type to text_processor.
// Status stays unset until the backend has pinged the plugin at least
// once; after that it is online iff the last health probe succeeded.
func MapPlugin(dto PluginDTO) story.Plugin {
	p := story.Plugin{
		ID:          strconv.FormatInt(dto.ID, 10),
		Name:        dto.Name,
		Version:     dto.Version,
		Author:      dto.Author,
		Description: dto.Description,
		Endpoint:    dto.Endpoint,
		Enabled:     dto.IsEnabled,
		Config:      dto.Config,
	}
	if p.Version == "" {
		p.Version = "1.0.0"
	}
	if p.Author == "" {
		p.Author = "Unknown"
	}
	if p.Config == nil {
		p.Config = map[string]string{}
	}
	for _, cap := range dto.Capabilities {
		id := cap.CapID
		if cap.ID != 0 {
			id = strconv.FormatInt(cap.ID, 10)
		}
		capType := story.CapabilityType(cap.Type)
		if capType == "" {
			capType = story.CapabilityTextProcessor
		}
		p.Capabilities = append(p.Capabilities, story.Capability{
			ID:          id,
			Name:        cap.Name,
			Type:        capType,
			Description: cap.Description,
			Icon:        cap.Icon,
		})
	}
	if dto.LastPing != "" {
		if ts, err := time.Parse(time.RFC3339, dto.LastPing); err == nil {
			p.LastPing = ts
		}
	}
	if dto.LatencyMS > 0 {
		p.Latency = time.Duration(dto.LatencyMS) * time.Millisecond
	}
	if !p.LastPing.IsZero() {
		if dto.Healthy {
			p.Status = story.PluginOnline
		} else {
			p.Status = story.PluginOffline
		}
	}
	return p
}

// Registry is the CRUD client for the backend plugin catalog. Health pings
// go through the backend, not directly to the plugin. Every operation is a
// single round trip; on error nothing is applied to in-memory state, so a
// failed call can never corrupt the registry.
type Registry struct {
	baseURL    string
	httpClient *http.Client
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryHTTPClient sets the underlying HTTP client.
func WithRegistryHTTPClient(hc *http.Client) RegistryOption {
	return func(r *Registry) { r.httpClient = hc }
}

// NewRegistry creates a registry client for the given backend base URL.
func NewRegistry(baseURL string, opts ...RegistryOption) *Registry {
	r := &Registry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List fetches one page of the catalog.
func (r *Registry) List(ctx context.Context, page, pageSize int) (*PluginList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var list PluginList
	err := r.do(ctx, http.MethodGet, "/api/v1/plugins?"+q.Encode(), nil, &list)
	r.record("list", err)
	if err != nil {
		return nil, oops.Wrapf(err, "list plugins")
	}
	return &list, nil
}

// ListPlugins fetches one page and maps it to in-memory entities.
func (r *Registry) ListPlugins(ctx context.Context, page, pageSize int) ([]story.Plugin, int, error) {
	list, err := r.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	plugins := make([]story.Plugin, len(list.Plugins))
	for i, dto := range list.Plugins {
		plugins[i] = MapPlugin(dto)
	}
	return plugins, list.Total, nil
}

// Create registers a new plugin; the backend assigns the id.
func (r *Registry) Create(ctx context.Context, req CreatePluginRequest) (story.Plugin, error) {
	var dto PluginDTO
	err := r.do(ctx, http.MethodPost, "/api/v1/plugins", req, &dto)
	r.record("create", err)
	if err != nil {
		return story.Plugin{}, oops.With("plugin", req.Name).Wrapf(err, "create plugin")
	}
	return MapPlugin(dto), nil
}

// Enable turns a plugin on. Enablement is independent of health.
func (r *Registry) Enable(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodPut, "/api/v1/plugins/"+url.PathEscape(id)+"/enable", nil, nil)
	r.record("enable", err)
	if err != nil {
		return oops.With("plugin_id", id).Wrapf(err, "enable plugin")
	}
	return nil
}

// Disable turns a plugin off.
func (r *Registry) Disable(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodPut, "/api/v1/plugins/"+url.PathEscape(id)+"/disable", nil, nil)
	r.record("disable", err)
	if err != nil {
		return oops.With("plugin_id", id).Wrapf(err, "disable plugin")
	}
	return nil
}

// Ping asks the backend to health-probe the plugin. Health and latency are
// refreshed only by this call, never inferred.
func (r *Registry) Ping(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodPost, "/api/v1/plugins/"+url.PathEscape(id)+"/ping", nil, nil)
	r.record("ping", err)
	if err != nil {
		return oops.With("plugin_id", id).Wrapf(err, "ping plugin")
	}
	return nil
}

// Delete removes a plugin from the registry. Removal has no cascading
// effect on project entities.
func (r *Registry) Delete(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodDelete, "/api/v1/plugins/"+url.PathEscape(id), nil, nil)
	r.record("delete", err)
	if err != nil {
		return oops.With("plugin_id", id).Wrapf(err, "delete plugin")
	}
	return nil
}

// AwaitOnline pings a plugin with fibonacci backoff until the catalog
// reports it online or the deadline passes. Intended for CLI and test
// flows that connect a plugin and want to wait out its startup.
func (r *Registry) AwaitOnline(ctx context.Context, id string, timeout time.Duration) (story.Plugin, error) {
	var found story.Plugin
	backoff := retry.WithMaxDuration(timeout, retry.NewFibonacci(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.Ping(ctx, id); err != nil {
			return retry.RetryableError(err)
		}
		plugins, _, err := r.ListPlugins(ctx, 1, 200)
		if err != nil {
			return retry.RetryableError(err)
		}
		for _, p := range plugins {
			if p.ID == id {
				if p.Status == story.PluginOnline {
					found = p
					return nil
				}
				return retry.RetryableError(fmt.Errorf("plugin %s is %s", id, p.Status))
			}
		}
		return fmt.Errorf("plugin %s not in catalog", id)
	})
	if err != nil {
		return story.Plugin{}, oops.With("plugin_id", id).Wrapf(err, "await plugin online")
	}
	return found, nil
}

// do performs one backend round trip, encoding body as JSON when non-nil
// and decoding the response into out when non-nil.
func (r *Registry) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Message != "" {
			return fmt.Errorf("registry returned %d: %s", resp.StatusCode, errBody.Message)
		}
		return fmt.Errorf("registry returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (r *Registry) record(operation string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	RecordRegistryRequest(operation, status)
}
