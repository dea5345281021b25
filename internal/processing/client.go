// Package processing is the HTTP client for the retrieval service that
// turns uploaded documents into embeddings.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Trigger invokes the retrieval service for an uploaded file. A single
// attempt per call; retry policy belongs to the caller.
type Trigger interface {
	// Process asks the service to fetch and process the stored blob
	// itself (pass-through formats).
	Process(ctx context.Context, fileID, embeddingsProvider string) error

	// ProcessText sends locally extracted text for processing
	// (formats the service cannot parse on its own).
	ProcessText(ctx context.Context, text, fileID, embeddingsProvider, fileExtension string) error
}

// Failure is a non-success answer from the retrieval service, carrying
// the remote message so the caller can surface it.
type Failure struct {
	StatusCode int
	Message    string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("processing failed (status %d): %s", f.StatusCode, f.Message)
	}
	return fmt.Sprintf("processing failed (status %d)", f.StatusCode)
}

// Client talks to the retrieval service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Process triggers pass-through processing.
// POST {base}/retrieval/process with multipart fields file_id and
// embeddingsProvider; the service reads the blob via the file's stored path.
func (c *Client) Process(ctx context.Context, fileID, embeddingsProvider string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("file_id", fileID); err != nil {
		return fmt.Errorf("write form field: %w", err)
	}
	if err := mw.WriteField("embeddingsProvider", embeddingsProvider); err != nil {
		return fmt.Errorf("write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrieval/process", &body)
	if err != nil {
		return fmt.Errorf("create process request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// ProcessText triggers rich-text processing with pre-extracted text.
// POST {base}/retrieval/process/docx with a JSON body.
func (c *Client) ProcessText(ctx context.Context, text, fileID, embeddingsProvider, fileExtension string) error {
	payload, err := json.Marshal(map[string]string{
		"text":               text,
		"fileId":             fileID,
		"embeddingsProvider": embeddingsProvider,
		"fileExtension":      fileExtension,
	})
	if err != nil {
		return fmt.Errorf("marshal process payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrieval/process/docx", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create process request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call retrieval service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return &Failure{
		StatusCode: resp.StatusCode,
		Message:    remoteMessage(resp.Body),
	}
}

// remoteMessage extracts the {message} field from a failure body,
// falling back to the raw body text.
func remoteMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return strings.TrimSpace(string(raw))
}
