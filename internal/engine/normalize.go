package engine

import (
	"net/url"
	"strings"
)

// NormalizeUID escapes a raw event UID so it can be used as a single path
// segment on the CalDAV server. Escaped slashes are collapsed into a plain
// dash so a UID containing "/" never produces an extra path level.
//
// Normalization is deterministic: the same raw UID always yields the same
// result, which is what keeps upload and delete addressing in agreement
// across runs.
func NormalizeUID(raw string) string {
	escaped := url.PathEscape(raw)
	return strings.ReplaceAll(escaped, "%2F", "-")
}
