package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TrackedName is an immutable identifier of an external name record, e.g.
// "alice.ns". The (SubscriberID, TrackedName) pairs form a many-to-many
// tracking relation.
type TrackedName string

// Validate checks if the tracked name is valid
func (n TrackedName) Validate() error {
	if n == "" {
		return goerr.New("tracked name is empty")
	}
	if strings.ContainsAny(string(n), " \t\r\n") {
		return goerr.New("tracked name contains whitespace", goerr.V("name", string(n)))
	}
	return nil
}

// String returns the string representation of the tracked name
func (n TrackedName) String() string {
	return string(n)
}

// NormalizeName lowercases the input and qualifies a bare label with the given
// suffix. "Alice" with suffix "ns" becomes "alice.ns"; an already qualified
// name is only lowercased.
func NormalizeName(input, suffix string) TrackedName {
	name := strings.ToLower(strings.TrimSpace(input))
	name = strings.TrimPrefix(name, "@")
	if name == "" {
		return ""
	}
	if suffix != "" && !strings.Contains(name, ".") {
		name = name + "." + suffix
	}
	return TrackedName(name)
}

// IsAddress reports whether the input looks like a raw account address
// (0x-prefixed 64-digit hex).
func IsAddress(input string) bool {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	digits := s[2:]
	if len(digits) != 64 {
		return false
	}
	for _, c := range digits {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeAddress lowercases a raw account address
func NormalizeAddress(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
