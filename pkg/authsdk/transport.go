package authsdk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/idx"
)

// RequestIDHeader is set on every request that does not already carry one.
const RequestIDHeader = "X-Request-ID"

// AdminPathSegment marks API paths that require an admin credential.
const AdminPathSegment = "/admin/"

// Transport is an http.RoundTripper that attaches the stored credential,
// refreshes it when it has expired or the API answers 401, and retries the
// request once with the new credential.
type Transport struct {
	// Base performs the requests. nil means http.DefaultTransport.
	Base http.RoundTripper

	Guard     *Guard
	Refresher *Refresher
}

var _ http.RoundTripper = (*Transport)(nil)

func NewTransport(guard *Guard, refresher *Refresher, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Guard: guard, Refresher: refresher}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := drainBody(req)
	if err != nil {
		return nil, err
	}

	out := cloneWithBody(req, body)
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, idx.New().String())
	}

	claims, err := t.Guard.AttachCredential(out)
	if errors.Is(err, ErrCredentialExpired) {
		claims, err = t.refreshInto(out)
	}
	if err != nil {
		return nil, err
	}
	if err := checkAdminPath(out, claims); err != nil {
		return nil, err
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// One retry only: a second 401 goes back to the caller.
	discard(resp)
	access, err := t.Refresher.OnUnauthorized(out.Context(), bearerOf(out))
	if err != nil {
		return nil, err
	}

	retry := cloneWithBody(out, body)
	claims, err = attachRaw(retry, access)
	if err != nil {
		return nil, err
	}
	if err := checkAdminPath(retry, claims); err != nil {
		return nil, err
	}
	return t.base().RoundTrip(retry)
}

// refreshInto refreshes an expired credential and attaches the result.
func (t *Transport) refreshInto(req *http.Request) (*credential.Claims, error) {
	access, err := t.Refresher.Refresh(req.Context())
	if err != nil {
		return nil, err
	}
	return attachRaw(req, access)
}

func attachRaw(req *http.Request, access string) (*credential.Claims, error) {
	c, err := credential.Decode(access)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	setBearer(req, access)
	return &c, nil
}

// checkAdminPath refuses admin paths unless claims carry an admin role.
func checkAdminPath(req *http.Request, claims *credential.Claims) error {
	if !strings.Contains(req.URL.Path, AdminPathSegment) {
		return nil
	}
	if claims == nil || !claims.Role.Satisfies(credential.RoleAdmin) {
		return fmt.Errorf("%w: %s requires an admin role", ErrForbidden, req.URL.Path)
	}
	return nil
}

// drainBody reads and closes the request body so it can be sent twice.
func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: read request body: %w", err)
	}
	return b, nil
}

func cloneWithBody(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	if body == nil {
		out.Body = nil
		return out
	}
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	return out
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
}

// HTTPClient returns an http.Client that sends requests through a Transport
// built from guard and refresher.
func HTTPClient(guard *Guard, refresher *Refresher) *http.Client {
	return &http.Client{
		Transport: NewTransport(guard, refresher, nil),
		Timeout:   DefaultTimeout,
	}
}
