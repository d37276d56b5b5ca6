package validation

import "strings"

// NormalizeName canonicalizes a human-supplied resource name so that
// name-based lookups and uniqueness checks are collision-consistent:
// surrounding whitespace is trimmed, the name is lowercased, and each run of
// whitespace becomes a single underscore. "Web  App" and "web app" both
// normalize to "web_app".
//
// Normalization is applied before every uniqueness check and before every
// name-based lookup, on both write and read paths.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "_")
}
