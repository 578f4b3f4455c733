// Package collector uploads evidence documents to a compliance evidence
// collector endpoint.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/window"
)

// Multipart field names expected by the collector.
const (
	FieldCollected = "collected"
	FieldFile      = "file"
)

// Client posts documents with Basic auth and an API key.
type Client struct {
	url        string
	username   string
	password   string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the clock used for the collected date.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates an uploader for the collector at url.
func NewClient(url, username, password, apiKey string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: collector URL not provided", model.ErrConfiguration)
	}
	c := &Client{
		url:        url,
		username:   username,
		password:   password,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode builds the multipart body: the collected date then the file part.
func (c *Client) encode(doc *model.Document) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField(FieldCollected, c.now().Format(window.DateLayout)); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldFile, quoteEscaper.Replace(doc.Name)))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, doc.Reader()); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body, mw.FormDataContentType(), nil
}

// Upload posts doc and returns the receipt issued by the collector.
func (c *Client) Upload(ctx context.Context, doc *model.Document) (*model.UploadResult, error) {
	body, contentType, err := c.encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload of %s: %w", doc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build upload request: %w", model.ErrTransport, err)
	}
	requestID := uuid.NewString()
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log.Debug("uploading evidence", "name", doc.Name, "bytes", doc.Size(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: upload failed: %w", model.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload response: %w", model.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: collector returned %s: %s", model.ErrTransport, resp.Status, truncate(string(data), maxErrorBody))
	}

	result, err := decodeReceipt(data)
	if err != nil {
		return nil, err
	}

	log.Debug("evidence uploaded", "id", result.ID, "request_id", requestID)
	return result, nil
}

// receipt mirrors the collector response; ID is a pointer so that a missing
// or null id is distinguishable from zero.
type receipt struct {
	ID *int64 `json:"id"`
}

func decodeReceipt(data []byte) (*model.UploadResult, error) {
	var r receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: failed to decode upload response: %w", model.ErrParse, err)
	}
	if r.ID == nil {
		return nil, fmt.Errorf("%w: upload response has no id: %s", model.ErrParse, truncate(string(data), maxErrorBody))
	}
	return &model.UploadResult{ID: *r.ID}, nil
}

// maxErrorBody bounds how much of a response body is quoted in an error.
const maxErrorBody = 200

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
