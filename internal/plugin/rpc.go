// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/story"
)

// Timeouts applied to the two plugin-facing calls. The manifest probe
// deadline is part of the protocol; the action deadline guards against an
// unresponsive plugin suspending a UI workflow indefinitely.
const (
	DefaultManifestTimeout = 5 * time.Second
	DefaultActionTimeout   = 20 * time.Second
)

// Fixed user-facing error strings. Transport failures are never surfaced
// as raw errors; they normalize to one of these.
const (
	ErrMsgDisabled    = "Plugin is currently disabled."
	ErrMsgTimeout     = "Request timed out."
	ErrMsgUnreachable = "Network error: Service unreachable or CORS blocked."
)

// maxResponseBytes caps how much of a plugin response is read.
const maxResponseBytes = 4 << 20

// Client performs the two plugin-facing network calls: the manifest probe
// and the action invocation. Calls go directly to the plugin's endpoint,
// not through the backend.
type Client struct {
	httpClient      *http.Client
	manifestTimeout time.Duration
	actionTimeout   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithManifestTimeout overrides the manifest probe deadline.
func WithManifestTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.manifestTimeout = d }
}

// WithActionTimeout overrides the action invocation deadline.
// Zero disables the deadline and falls back to transport defaults.
func WithActionTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.actionTimeout = d }
}

// NewClient creates a plugin RPC client with default timeouts.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		manifestTimeout: DefaultManifestTimeout,
		actionTimeout:   DefaultActionTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProbeResult is a successful manifest probe: the manifest plus measured
// round-trip latency.
type ProbeResult struct {
	Manifest Manifest
	Latency  time.Duration
}

// Probe fetches GET {endpoint}/manifest under the probe deadline.
// Any failure — non-2xx, timeout, network error, malformed body — yields
// nil: the caller treats the plugin as offline, never as an error.
func (c *Client) Probe(ctx context.Context, endpoint string) *ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, c.manifestTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+"/manifest", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}

	return &ProbeResult{Manifest: m, Latency: time.Since(start)}
}

// ProjectContext is the redacted project snapshot sent with an action call.
type ProjectContext struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Genre      string              `json:"genre"`
	WorldRules string              `json:"worldRules"`
	Entities   []story.StoryEntity `json:"entities"`
}

// DocumentContext is the redacted active-document snapshot.
type DocumentContext struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ActionContext is the context object of an action request.
type ActionContext struct {
	Project        ProjectContext   `json:"project"`
	ActiveDocument *DocumentContext `json:"activeDocument,omitempty"`
}

// NewActionContext builds the action context from a project snapshot and
// the currently active document, if any.
func NewActionContext(p story.Project, activeDoc *story.Document) ActionContext {
	actx := ActionContext{
		Project: ProjectContext{
			ID:         p.ID,
			Title:      p.Title,
			Genre:      p.Genre,
			WorldRules: p.WorldRules,
			Entities:   p.Entities,
		},
	}
	if actx.Project.Entities == nil {
		actx.Project.Entities = []story.StoryEntity{}
	}
	if activeDoc != nil {
		actx.ActiveDocument = &DocumentContext{
			ID:      activeDoc.ID,
			Title:   activeDoc.Title,
			Content: activeDoc.Content,
		}
	}
	return actx
}

// ActionRequest is the body of POST {endpoint}/action.
type ActionRequest struct {
	ActionID     string            `json:"actionId"`
	PluginConfig map[string]string `json:"pluginConfig"`
	Context      ActionContext     `json:"context"`
	Payload      any               `json:"payload,omitempty"`
}

// CallResult is the outcome of an action invocation. It is returned for
// every invocation, success or failure, and always carries the measured
// latency once a network attempt was made.
type CallResult struct {
	Success      bool
	Instructions []Instruction
	Error        string
	Latency      time.Duration
}

// Invoke calls POST {endpoint}/action for one capability of the plugin.
//
// A disabled plugin short-circuits with a fixed error before any network
// attempt. Transport failures normalize to the fixed timeout/unreachable
// strings; non-2xx responses are parsed best-effort for a message field,
// falling back to status code and text.
func (c *Client) Invoke(ctx context.Context, pl story.Plugin, actionID string, actx ActionContext, payload any) CallResult {
	if !pl.Enabled {
		return CallResult{Success: false, Error: ErrMsgDisabled}
	}

	if c.actionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.actionTimeout)
		defer cancel()
	}

	cfg := pl.Config
	if cfg == nil {
		cfg = map[string]string{}
	}
	reqBody, err := json.Marshal(ActionRequest{
		ActionID:     actionID,
		PluginConfig: cfg,
		Context:      actx,
		Payload:      payload,
	})
	if err != nil {
		return CallResult{Success: false, Error: fmt.Sprintf("encode action request: %v", err)}
	}

	start := time.Now()
	observe := func(status string) time.Duration {
		latency := time.Since(start)
		RecordActionInvocation(pl.Name, actionID, status)
		RecordActionDuration(pl.Name, actionID, latency)
		return latency
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(pl.Endpoint, "/")+"/action", bytes.NewReader(reqBody))
	if err != nil {
		return CallResult{Success: false, Error: ErrMsgUnreachable, Latency: observe(StatusError)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		msg := ErrMsgUnreachable
		status := StatusError
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = ErrMsgTimeout
			status = StatusTimeout
		}
		return CallResult{Success: false, Error: msg, Latency: observe(status)}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("Server returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		var errBody struct {
			Message string `json:"message"`
		}
		if readErr == nil && json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
			msg = errBody.Message
		}
		return CallResult{Success: false, Error: msg, Latency: observe(StatusError)}
	}

	if readErr != nil {
		return CallResult{Success: false, Error: ErrMsgUnreachable, Latency: observe(StatusError)}
	}

	instructions, err := DecodeInstructions(body)
	if err != nil {
		return CallResult{Success: false, Error: fmt.Sprintf("Invalid plugin response: %v", err), Latency: observe(StatusError)}
	}

	return CallResult{Success: true, Instructions: instructions, Latency: observe(StatusSuccess)}
}

// isTimeout reports whether a transport error is a timeout as opposed to
// an unreachable host.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
