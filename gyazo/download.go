package gyazo

import (
	"context"
	"io"
	"net/http"
)

// Download fetches the full size image file. It returns nil, nil when the
// image has no URL.
func (c *Client) Download(ctx context.Context, img Image) ([]byte, error) {
	return c.fetch(ctx, img.URL)
}

// DownloadThumb fetches the thumbnail file. It returns nil, nil when the
// image has no thumbnail URL.
func (c *Client) DownloadThumb(ctx context.Context, img Image) ([]byte, error) {
	return c.fetch(ctx, img.ThumbURL)
}

// fetch performs an unauthenticated GET and returns the raw body
func (c *Client) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	if fileURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, &TransportError{Op: http.MethodGet, URL: fileURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("url", fileURL).Msg("Downloading image")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: http.MethodGet, URL: fileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", URL: fileURL, Err: err}
	}

	return data, nil
}
