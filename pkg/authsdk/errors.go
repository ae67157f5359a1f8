package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

// ============================================================================
// Error kinds
// ============================================================================

var (
	// ErrMalformedCredential is returned when the stored access credential is
	// not structurally valid. The session has been cleared.
	ErrMalformedCredential = fmt.Errorf("authsdk: %w", credential.ErrMalformed)

	// ErrCredentialExpired is returned by AttachCredential for a well formed
	// credential whose expiry has passed. The session is left for a refresh.
	ErrCredentialExpired = errors.New("authsdk: credential expired")

	// ErrAuthenticationFailed is returned for 401 and 403 responses.
	ErrAuthenticationFailed = errors.New("authsdk: authentication failed")

	// ErrMissingFields is returned for 400 responses.
	ErrMissingFields = errors.New("authsdk: missing fields")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("authsdk: rate limited")

	// ErrServerError is returned for 5xx and other unexpected statuses.
	ErrServerError = errors.New("authsdk: server error")

	// ErrNetwork wraps transport failures where no response was received.
	ErrNetwork = errors.New("authsdk: network error")

	// ErrInvalidServerResponse is returned when a 2xx body cannot be decoded
	// or does not carry a usable credential pair.
	ErrInvalidServerResponse = errors.New("authsdk: invalid response from server")

	// ErrNoRefreshAvailable is returned when a refresh is needed but no refresh
	// credential is stored.
	ErrNoRefreshAvailable = errors.New("authsdk: no refresh token available")

	// ErrRefreshFailed wraps every refresh failure. The session has been cleared.
	ErrRefreshFailed = errors.New("authsdk: token refresh failed")

	// ErrForbidden is returned when an admin path is requested without an
	// admin credential. Nothing is sent.
	ErrForbidden = errors.New("authsdk: forbidden")

	// ErrRoleRequired is returned by LoginRequiring when the account signed
	// in but lacks the required role. The session has been logged out.
	ErrRoleRequired = fmt.Errorf("%w: role required", ErrForbidden)
)

// ============================================================================
// APIError
// ============================================================================

// APIError is a non-2xx response from the banking API. It unwraps to one of
// the kind sentinels above so callers can use errors.Is.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Code is the machine readable error field of the body, if any.
	Code string

	// Description is the human readable text the server sent.
	Description string

	// RetryAfter is parsed from the Retry-After header on 429 responses.
	RetryAfter time.Duration

	kind error
}

func (e *APIError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.kind, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return e.kind }

// kindForStatus maps a response status to its error kind.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrMissingFields
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuthenticationFailed
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServerError
	}
}

// parseErrorResponse turns a non-2xx response into an *APIError. The body may
// be JSON of the form {"error": ..., "details": ..., "message": ...} or
// anything else.
func parseErrorResponse(resp *http.Response, body []byte) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		kind:       kindForStatus(resp.StatusCode),
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		e.Code = errResp.Error
		e.Description = firstNonEmpty(errResp.Details, errResp.Error, errResp.Message)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return e
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clearsSessionOnLogin reports whether a failed login wipes stored credentials.
// Rate limiting, network failures and bad server responses leave them alone.
func clearsSessionOnLogin(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrServerError)
}
