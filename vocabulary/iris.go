// Package vocabulary provides namespace constants and IRI helpers for the
// mapping engine.
package vocabulary

import (
	"fmt"
	"regexp"
	"strings"
)

// absoluteIRIPattern matches IRIs with an explicit scheme.
// Intentionally permissive: the engine validates shape, not reachability.
var absoluteIRIPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// languageTagPattern matches well-formed BCP-47 language tags
// (primary subtag plus optional subtags).
var languageTagPattern = regexp.MustCompile(`^[a-zA-Z]{2,8}(-[a-zA-Z0-9]{1,8})*$`)

// IsAbsoluteIRI reports whether s looks like an absolute IRI
// (has a scheme and a non-empty remainder).
func IsAbsoluteIRI(s string) bool {
	if s == "" {
		return false
	}
	loc := absoluteIRIPattern.FindString(s)
	if loc == "" {
		return false
	}
	// "http:" alone is not a usable identifier
	return len(s) > len(loc)
}

// IsValidLanguageTag reports whether tag is a well-formed BCP-47 tag.
// Empty tags are rejected: a language map entry must carry a language.
func IsValidLanguageTag(tag string) bool {
	return languageTagPattern.MatchString(tag)
}

// knownSchemes disambiguates prefixed names from genuine IRIs: "foaf:name"
// and "urn:uuid:1234" are both scheme-shaped, but only the latter carries a
// real scheme.
var knownSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"urn":    true,
	"mailto": true,
	"ftp":    true,
	"tag":    true,
	"did":    true,
}

// ExpandPrefixed resolves a prefixed name ("foaf:name") against a prefix
// table. Names that are already absolute IRIs are returned unchanged.
// Returns the expanded IRI and true on success. A declared prefix takes
// precedence over a scheme of the same spelling; an undeclared prefix that
// is not a known scheme fails rather than passing through as a fake IRI.
//
// Only simple prefix:local expansion is supported. Full JSON-LD IRI
// expansion (vocab-relative, base-relative) is out of scope.
func ExpandPrefixed(name string, prefixes map[string]string) (string, bool) {
	if prefix, local, ok := splitPrefixed(name); ok {
		if base, found := prefixes[prefix]; found {
			return base + local, true
		}
		if knownSchemes[prefix] {
			return name, true
		}
		return "", false
	}
	if IsAbsoluteIRI(name) {
		return name, true
	}
	return "", false
}

func splitPrefixed(name string) (prefix, local string, ok bool) {
	idx := strings.Index(name, ":")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	local = name[idx+1:]
	// "http://..." is not a prefixed name
	if strings.HasPrefix(local, "//") {
		return "", "", false
	}
	return name[:idx], local, true
}

// QName compacts an IRI against a prefix table for display purposes.
// Falls back to the full IRI when no prefix matches.
func QName(iri string, prefixes map[string]string) string {
	for prefix, base := range prefixes {
		if strings.HasPrefix(iri, base) && len(iri) > len(base) {
			return fmt.Sprintf("%s:%s", prefix, iri[len(base):])
		}
	}
	return iri
}
