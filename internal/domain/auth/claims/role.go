// Package claims derives a canonical role from decoded token claims whose
// shape depends on the issuer.
package claims

import "strings"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	rolePrefix = "ROLE_"
)

// Shape is the closed set of layouts a role can arrive in.
type Shape int

const (
	ShapeNone Shape = iota
	// ShapeSequence is a "roles" or "authorities" list whose first element
	// is a string or an object with an "authority" or "role" field.
	ShapeSequence
	// ShapeString is a single "role" string.
	ShapeString
)

// sequenceKeys are checked in order.
var sequenceKeys = []string{"roles", "authorities"}

// Classify reports which shape c has and the raw role it carries.
func Classify(c map[string]any) (Shape, string) {
	for _, key := range sequenceKeys {
		if raw, ok := firstElement(c[key]); ok {
			return ShapeSequence, raw
		}
	}
	if s, ok := c["role"].(string); ok && strings.TrimSpace(s) != "" {
		return ShapeString, s
	}
	return ShapeNone, ""
}

// NormalizeRole returns the canonical role for c: the first sequence entry,
// else the role string, else USER, with any ROLE_ prefix removed. It never
// fails; nil claims yield USER.
func NormalizeRole(c map[string]any) string {
	_, raw := Classify(c)
	role := strings.TrimPrefix(strings.TrimSpace(raw), rolePrefix)
	if role == "" {
		return RoleUser
	}
	return role
}

// IsAdmin reports whether the normalized role grants administration.
func IsAdmin(c map[string]any) bool {
	return NormalizeRole(c) == RoleAdmin
}

// firstElement extracts the first entry of a role sequence. Empty sequences
// and unusable first entries fall through to the next shape.
func firstElement(v any) (string, bool) {
	var first any
	switch seq := v.(type) {
	case []any:
		if len(seq) == 0 {
			return "", false
		}
		first = seq[0]
	case []string:
		if len(seq) == 0 {
			return "", false
		}
		first = seq[0]
	case []map[string]any:
		if len(seq) == 0 {
			return "", false
		}
		first = seq[0]
	default:
		return "", false
	}

	switch el := first.(type) {
	case string:
		return el, strings.TrimSpace(el) != ""
	case map[string]any:
		for _, field := range []string{"authority", "role"} {
			if s, ok := el[field].(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}
