package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for any credential that is not structurally valid.
var ErrMalformed = errors.New("credential: malformed")

// Claim names used by the banking API.
const (
	ClaimUserID  = "userId"
	ClaimRole    = "role"
	ClaimExpires = "exp"
)

// Claims are the fields of an access credential the client relies on.
type Claims struct {
	SubjectID string
	Role      Role
	ExpiresAt time.Time
}

// IsLive reports whether the credential expires strictly after now.
func (c Claims) IsLive(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// IsLive is the functional form of Claims.IsLive.
func IsLive(c Claims, now time.Time) bool { return c.IsLive(now) }

// segmentParser decodes base64url segments, padded or not.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode parses the payload of a three segment credential without verifying
// its signature. The client cannot verify signatures; it only checks shape
// and claims. Every failure wraps ErrMalformed.
func Decode(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Claims{}, fmt.Errorf("%w: empty segment", ErrMalformed)
		}
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: payload encoding: %v", ErrMalformed, err)
	}

	var mc jwt.MapClaims
	if err := json.Unmarshal(payload, &mc); err != nil {
		return Claims{}, fmt.Errorf("%w: payload json: %v", ErrMalformed, err)
	}
	if mc == nil {
		return Claims{}, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}

	return claimsFromMap(mc)
}

func claimsFromMap(mc jwt.MapClaims) (Claims, error) {
	subject, err := subjectOf(mc)
	if err != nil {
		return Claims{}, err
	}

	rawRole, ok := mc[ClaimRole].(string)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing %s claim", ErrMalformed, ClaimRole)
	}
	role, err := ParseRole(rawRole)
	if err != nil {
		return Claims{}, err
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s claim: %v", ErrMalformed, ClaimExpires, err)
	}
	if exp == nil {
		return Claims{}, fmt.Errorf("%w: missing %s claim", ErrMalformed, ClaimExpires)
	}

	return Claims{
		SubjectID: subject,
		Role:      role,
		ExpiresAt: exp.Time,
	}, nil
}

// subjectOf reads userId, falling back to the registered sub claim. A
// present userId of the wrong type is malformed even if sub is set.
func subjectOf(mc jwt.MapClaims) (string, error) {
	if v, present := mc[ClaimUserID]; present {
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%w: %s must be a non-empty string", ErrMalformed, ClaimUserID)
		}
		return s, nil
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing %s claim", ErrMalformed, ClaimUserID)
	}
	return sub, nil
}

// decodeSegment accepts base64url (JWT) and, for servers that encode with
// the standard alphabet, plain base64.
func decodeSegment(seg string) ([]byte, error) {
	b, err := segmentParser.DecodeSegment(seg)
	if err == nil {
		return b, nil
	}
	if b, stdErr := base64.StdEncoding.DecodeString(seg); stdErr == nil {
		return b, nil
	}
	if b, stdErr := base64.RawStdEncoding.DecodeString(seg); stdErr == nil {
		return b, nil
	}
	return nil, err
}
