// Package predict submits plant images to the prediction service.
package predict

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

	"github.com/go-playground/validator/v10"
	"github.com/kamilpajak/leafguard/pkg/models"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

const (
	predictPath  = "/predict/"
	fileField    = "file"
	maxErrorBody = 64 << 10
)

// Image is the payload of a single submission
type Image struct {
	Name      string
	MediaType string
	Data      []byte
}

// Client handles prediction service interactions
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new prediction client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: &http.Client{},
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit uploads img and returns the decoded prediction. It makes exactly
// one request and never retries. Every failure is an *Error.
func (c *Client) Submit(ctx context.Context, img Image) (*models.Prediction, error) {
	if len(img.Data) == 0 {
		return nil, inputError("image is empty")
	}

	body, contentType, err := encodeImage(img)
	if err != nil {
		return nil, &Error{Kind: KindInput, Message: "could not encode image", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, body)
	if err != nil {
		return nil, &Error{Kind: KindInput, Message: "could not build prediction request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, businessError(resp.StatusCode, errorDetail(payload))
	}

	var prediction models.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, protocolError(resp.StatusCode, fmt.Errorf("decode prediction: %w", err))
	}
	if err := c.validate.Struct(&prediction); err != nil {
		return nil, protocolError(resp.StatusCode, fmt.Errorf("validate prediction: %w", err))
	}

	return &prediction, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeImage(img Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	name := img.Name
	if name == "" {
		name = "image"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, quoteEscaper.Replace(name)))
	if img.MediaType != "" {
		header.Set("Content-Type", img.MediaType)
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// errorDetail extracts a string "detail" field from an error body. FastAPI
// validation errors carry a list there, which is not displayable as-is.
func errorDetail(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
