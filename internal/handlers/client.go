// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/transcriptd/internal/platform/httpx"
)

const maxResponseBytes = 1 << 20

// Client calls handlers served by a remote transcriptd.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a client for the handler API at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid handler base url %q", baseURL)
	}
	return &Client{base: u, http: httpx.NewClient(timeout, httpx.WithTracing("handlers"))}, nil
}

// UploadDefaultTranscript implements Handlers.
func (c *Client) UploadDefaultTranscript(ctx context.Context, target Target, req DefaultTranscriptRequest) (DefaultTranscriptResponse, error) {
	endpoint := c.itemURL(target.ItemID, "handlers", "upload_default_transcript")
	if target.VideoID != "" {
		endpoint.RawQuery = url.Values{"video_id": {target.VideoID}}.Encode()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return DefaultTranscriptResponse{}, err
	}

	var out DefaultTranscriptResponse
	if err := c.do(ctx, endpoint.String(), "application/json", bytes.NewReader(body), &out); err != nil {
		return DefaultTranscriptResponse{}, err
	}
	return out, nil
}

// SubmitFile implements Handlers.
func (c *Client) SubmitFile(ctx context.Context, target Target, file ManualFile) (AssetResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", file.Filename)
	if err != nil {
		return AssetResponse{}, err
	}
	if _, err := part.Write(file.Content); err != nil {
		return AssetResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return AssetResponse{}, err
	}

	var out AssetResponse
	if err := c.do(ctx, c.itemURL(target.ItemID, "assets").String(), mw.FormDataContentType(), &buf, &out); err != nil {
		return AssetResponse{}, err
	}
	return out, nil
}

func (c *Client) itemURL(itemID string, rest ...string) *url.URL {
	elems := append([]string{"api", "v1", "items", url.PathEscape(itemID)}, rest...)
	return c.base.JoinPath(elems...)
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Status: http.StatusBadGateway, Message: "The handler service is unreachable.", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Status: http.StatusBadGateway, Message: "Failed to read the handler response.", Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: http.StatusBadGateway, Message: "The handler returned an invalid response.", Err: err}
	}
	return nil
}

// decodeError reads the {"error": ..., "detail": ...} payload.
func decodeError(status int, raw []byte) error {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(raw, &payload)
	msg := payload.Detail
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}
