package gyazo

import (
	"encoding/json"
	"io"
	"net/http"
)

// errorBody is the shape of an API error payload
type errorBody struct {
	Message string `json:"message"`
}

// parseResponse reads resp and returns its headers and JSON body.
// The body is decoded before the status is checked, so a malformed error
// body is reported as a *DecodeError rather than an *APIError.
func parseResponse(resp *http.Response) (http.Header, json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &TransportError{Op: "read", URL: requestURL(resp), Err: err}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, &DecodeError{Body: body, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, newAPIError(resp.StatusCode, raw)
	}

	return resp.Header, raw, nil
}

// newAPIError extracts the message field of an error body.
func newAPIError(status int, raw json.RawMessage) *APIError {
	apiErr := &APIError{StatusCode: status, Message: genericErrorMessage}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	}

	return apiErr
}

// decodeBody unmarshals a validated body into v
func decodeBody(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Body: raw, Err: err}
	}
	return nil
}

func requestURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}
