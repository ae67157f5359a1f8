package authsdk

import "errors"

// User facing messages.
const (
	MessageSessionExpired  = "Your session has expired. Please sign in again."
	MessageSessionInvalid  = "Your session is no longer valid. Please sign in again."
	MessageRateLimited     = "Too many login attempts. Please wait a few minutes and try again."
	MessageInvalidLogin    = "Invalid username or password."
	MessageMissingFields   = "Please enter both username and password."
	MessageForbidden       = "You do not have permission to access this page."
	MessageAdminRequired   = "Access denied. Admin credentials required."
	MessageNetwork         = "Unable to reach the server. Please check your connection and try again."
	MessageInvalidResponse = "The server sent an unexpected response. Please try again."
	MessageUnexpected      = "Something went wrong. Please try again."
)

// UserMessage turns an error from this package into text for the user.
// Authentication failures show the server's own text when it sent one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	hasDescription := errors.As(err, &apiErr) && apiErr.Description != ""

	switch {
	case errors.Is(err, ErrRefreshFailed),
		errors.Is(err, ErrNoRefreshAvailable),
		errors.Is(err, ErrCredentialExpired):
		return MessageSessionExpired
	case errors.Is(err, ErrInvalidServerResponse):
		return MessageInvalidResponse
	case errors.Is(err, ErrMalformedCredential):
		return MessageSessionInvalid
	case errors.Is(err, ErrRateLimited):
		return MessageRateLimited
	case errors.Is(err, ErrRoleRequired):
		return MessageAdminRequired
	case errors.Is(err, ErrForbidden):
		return MessageForbidden
	case errors.Is(err, ErrAuthenticationFailed):
		if hasDescription {
			return apiErr.Description
		}
		return MessageInvalidLogin
	case errors.Is(err, ErrMissingFields):
		if hasDescription {
			return apiErr.Description
		}
		return MessageMissingFields
	case errors.Is(err, ErrNetwork):
		return MessageNetwork
	default:
		return MessageUnexpected
	}
}
