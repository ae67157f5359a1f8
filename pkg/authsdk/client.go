package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every call made by an SDKClient built with NewSDKClient.
const DefaultTimeout = 10 * time.Second

// SDKClient talks JSON to the banking API. A plain SDKClient serves the
// authentication endpoints; WithTransport derives one that sends stored
// credentials for the account endpoints.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Endpoints = (*SDKClient)(nil)

// NewSDKClient creates a client for the API rooted at baseURL, for example
// http://localhost:4000/api.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithTransport returns a copy of c whose requests go through rt, keeping
// the configured timeout.
func (c *SDKClient) WithTransport(rt http.RoundTripper) *SDKClient {
	timeout := DefaultTimeout
	if c.HTTPClient != nil {
		timeout = c.HTTPClient.Timeout
	}
	return &SDKClient{
		BaseURL:    c.BaseURL,
		HTTPClient: &http.Client{Transport: rt, Timeout: timeout},
	}
}
