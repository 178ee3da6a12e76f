package derivative

import (
	"encoding/base64"
	"net/url"
)

// Urnify encodes an object identifier into the URL-safe URN form the API
// expects as a path parameter: base64 with the URL-safe alphabet and the
// trailing "=" padding stripped. Pure function; Unurnify inverts it.
func Urnify(objectID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(objectID))
}

// Unurnify decodes a URN produced by Urnify back to the original object
// identifier.
func Unurnify(urn string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(urn)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// escapeSegment path-escapes a single URL path segment. Derivative URNs
// contain ":" and "/" and must not be interpolated raw.
func escapeSegment(s string) string {
	return url.PathEscape(s)
}
