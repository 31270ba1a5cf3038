// Package imaging is the client of the image storage collaborator: it ships
// raw image bytes to the image server and returns the stored path that the
// catalog keeps as an opaque reference.
package imaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Uploader struct {
	baseURL string
	http    *http.Client
}

func NewUploader(baseURL string, timeout time.Duration) *Uploader {
	return &Uploader{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	Data struct {
		File string `json:"file"`
	} `json:"data"`
}

// Upload posts the image body and returns the stored file reference.
func (u *Uploader) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/api/products", body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload image: unexpected status %d", resp.StatusCode)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if decoded.Data.File == "" {
		return "", fmt.Errorf("upload image: empty file reference in response")
	}
	return decoded.Data.File, nil
}
