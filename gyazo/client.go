package gyazo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Client represents a Gyazo API client
type Client struct {
	apiURL       string
	uploadURL    string
	accessToken  string
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client
	logger       zerolog.Logger
}

// NewClient creates a new Gyazo client
func NewClient(logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	apiURL, err := normalizeBaseURL(o.apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: api url: %v", ErrInvalidConfig, err)
	}
	uploadURL, err := normalizeBaseURL(o.uploadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: upload url: %v", ErrInvalidConfig, err)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		apiURL:       apiURL,
		uploadURL:    uploadURL,
		accessToken:  o.accessToken,
		clientID:     o.clientID,
		clientSecret: o.clientSecret,
		userAgent:    o.userAgent,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// normalizeBaseURL validates a base URL and strips its trailing slash
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute URL", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// newRequest builds a request against endpoint, which is a full URL
func (c *Client) newRequest(ctx context.Context, method, endpoint string, params url.Values, body io.Reader, authenticated bool) (*http.Request, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if authenticated && c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	return req, nil
}

// do sends req and parses the JSON response
func (c *Client) do(req *http.Request) (http.Header, json.RawMessage, error) {
	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Msg("Making Gyazo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Op: req.Method, URL: req.URL.Redacted(), Err: err}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("url", req.URL.Redacted()).
		Msg("Received Gyazo API response")

	return parseResponse(resp)
}

// ListImages retrieves one page of the user's images. Non-positive page and
// perPage fall back to 1 and DefaultPerPage.
func (c *Client) ListImages(ctx context.Context, page, perPage int) (*ImageCollection, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL+"/api/images", params, nil, true)
	if err != nil {
		return nil, err
	}

	headers, raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var images ImageCollection
	if err := decodeBody(raw, &images); err != nil {
		return nil, err
	}
	if err := images.SetAttributesFromHeaders(headers); err != nil {
		return nil, err
	}

	return &images, nil
}

// ListAllImages retrieves every page of the user's images
func (c *Client) ListAllImages(ctx context.Context, perPage int) (*ImageCollection, error) {
	all := NewImageCollection()
	page := 1

	for {
		images, err := c.ListImages(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list page %d: %w", page, err)
		}

		all = Concat(all, images)

		c.logger.Debug().
			Int("page", page).
			Int("count", images.Len()).
			Int("total", all.Len()).
			Msg("Retrieved images from Gyazo")

		hasNext, ok := images.HasNextPage()
		if !ok || !hasNext || images.Len() == 0 {
			break
		}
		page++
	}

	return all, nil
}

// GetImage retrieves a single image
func (c *Client) GetImage(ctx context.Context, imageID string) (*Image, error) {
	return c.imageRequest(ctx, http.MethodGet, imageID)
}

// DeleteImage deletes an image and returns the server's last view of it
func (c *Client) DeleteImage(ctx context.Context, imageID string) (*Image, error) {
	return c.imageRequest(ctx, http.MethodDelete, imageID)
}

func (c *Client) imageRequest(ctx context.Context, method, imageID string) (*Image, error) {
	if imageID == "" {
		return nil, ErrInvalidImageID
	}

	endpoint := c.apiURL + "/api/images/" + url.PathEscape(imageID)
	req, err := c.newRequest(ctx, method, endpoint, nil, nil, true)
	if err != nil {
		return nil, err
	}

	_, raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var img Image
	if err := decodeBody(raw, &img); err != nil {
		return nil, err
	}

	return &img, nil
}

// UploadImage uploads image data to the upload host
func (c *Client) UploadImage(ctx context.Context, data []byte, opts *UploadOptions) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	body, contentType, err := buildUploadBody(data, opts)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.uploadURL+"/api/upload", nil, body, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	_, raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var img Image
	if err := decodeBody(raw, &img); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("image_id", img.ImageID).
		Int("bytes", len(data)).
		Msg("Uploaded image to Gyazo")

	return &img, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildUploadBody writes the multipart form for an upload
func buildUploadBody(data []byte, opts *UploadOptions) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range opts.formFields() {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f.name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="imagedata"; filename="%s"`, quoteEscaper.Replace(opts.filename())))
	header.Set("Content-Type", http.DetectContentType(data))

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write image data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// GetOEmbed retrieves the oEmbed document for a public image page.
// The request is not authenticated.
func (c *Client) GetOEmbed(ctx context.Context, pageURL string) (OEmbed, error) {
	params := url.Values{}
	params.Set("url", pageURL)

	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL+"/api/oembed", params, nil, false)
	if err != nil {
		return nil, err
	}

	_, raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var doc OEmbed
	if err := decodeBody(raw, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
