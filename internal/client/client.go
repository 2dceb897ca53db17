// Package client consumes the viewer API: uploads with progress reporting
// and series/frame fetches for the viewer components.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

const (
	defaultTimeout = 30 * time.Second
	// Uploads parse whole studies server-side; minutes, not seconds.
	defaultUploadTimeout = 5 * time.Minute
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout == 0 {
		uploadTimeout = defaultUploadTimeout
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: timeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

// UploadFile is one ZIP handed to Upload.
type UploadFile struct {
	Name string
	Data []byte
}

// progressReader reports cumulative bytes read as a 0-100 percentage.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.onProgress != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.onProgress(pct)
	}
	return n, err
}

// Upload posts ZIP files as a multipart form. onProgress, when non-nil,
// receives the upload percentage as bytes go out.
func (c *Client) Upload(ctx context.Context, files []UploadFile, onProgress func(pct int)) (*dto.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	reader := &progressReader{
		r:          &body,
		total:      int64(body.Len()),
		onProgress: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = reader.total

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	var out dto.UploadResponse
	if err := c.decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSeries fetches series metadata and its full frame buffer.
func (c *Client) GetSeries(ctx context.Context, sessionID, seriesUID string) (*dto.SeriesResponse, error) {
	url := fmt.Sprintf("%s/api/series/%s/%s", c.baseURL, sessionID, seriesUID)

	var out dto.SeriesResponse
	if err := c.get(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFrame fetches a single frame, the incremental refresh path.
func (c *Client) GetFrame(ctx context.Context, sessionID, seriesUID string, index int) (*dto.FrameResponse, error) {
	url := fmt.Sprintf("%s/api/series/%s/%s/frame/%d", c.baseURL, sessionID, seriesUID, index)

	var out dto.FrameResponse
	if err := c.get(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadSeries implements viewer.SeriesLoader.
func (c *Client) LoadSeries(ctx context.Context, sessionID, seriesUID string) ([]dto.Frame, error) {
	resp, err := c.GetSeries(ctx, sessionID, seriesUID)
	if err != nil {
		return nil, err
	}
	return resp.Frames, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ServerError{Status: resp.StatusCode, Message: string(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
