package gyazo

import (
	"net/http"
	"time"
)

// Default endpoints and settings
const (
	DefaultAPIURL    = "https://api.gyazo.com"
	DefaultUploadURL = "https://upload.gyazo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "gyazo-go"
	DefaultPerPage   = 20
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	apiURL       string
	uploadURL    string
	accessToken  string
	clientID     string
	clientSecret string
	timeout      time.Duration
	userAgent    string
	httpClient   *http.Client
}

func defaultOptions() clientOptions {
	return clientOptions{
		apiURL:    DefaultAPIURL,
		uploadURL: DefaultUploadURL,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
}

// WithAccessToken sets the bearer token sent on authenticated calls.
func WithAccessToken(token string) Option {
	return func(o *clientOptions) {
		o.accessToken = token
	}
}

// WithClientCredentials stores the OAuth application credentials.
// They are kept for OAuth flows and not sent on any API call.
func WithClientCredentials(clientID, clientSecret string) Option {
	return func(o *clientOptions) {
		o.clientID = clientID
		o.clientSecret = clientSecret
	}
}

// WithAPIURL overrides the API host.
func WithAPIURL(apiURL string) Option {
	return func(o *clientOptions) {
		if apiURL != "" {
			o.apiURL = apiURL
		}
	}
}

// WithUploadURL overrides the upload host.
func WithUploadURL(uploadURL string) Option {
	return func(o *clientOptions) {
		if uploadURL != "" {
			o.uploadURL = uploadURL
		}
	}
}

// WithTimeout sets the HTTP client timeout.
// Ignored when a custom client is supplied with WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithHTTPClient sets the http.Client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}
