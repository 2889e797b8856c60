// Enumeration-like type for negotiated content media types.
package mediatype

import (
	"strings"
)

/*
MediaType is used to enumerate the default representation for content encoding
types. Non default MediaTypes can be used by wrapping a custom string:

	MediaType("text/csv")

A MediaType may carry parameters ("application/json;charset=utf-8"); Base()
strips them for registry lookups and pattern matching.
*/
type MediaType string

const (
	JSON    = MediaType("application/json")
	XML     = MediaType("text/xml")
	HTML    = MediaType("text/html")
	UON     = MediaType("text/uon")
	URLENC  = MediaType("application/x-www-form-urlencoded")
	MSGPACK = MediaType("application/msgpack")
	BSON    = MediaType("application/bson")
	YAML    = MediaType("application/yaml")
	TEXT    = MediaType("text/plain")
	// UNKNOWN is used when the incoming string is blank.
	UNKNOWN = MediaType("")
)

// List of default mediaTypes that are encoded to / from objects (as opposed to
// raw text). Used by FromString to normalize shorthand forms like "json" or
// "x-msgpack".
var objectMediaTypes = []MediaType{JSON, XML, UON, URLENC, MSGPACK, BSON, YAML}

// Interface for objects that expose headers such as http.Request.Header or
// http.Response.Header.
type headerFetcher interface {
	Get(string) string
}

// Extract the media type from a message / request header.
func FromHeader(headers headerFetcher) MediaType {
	return FromString(headers.Get("Content-Type"))
}

/*
FromString converts an incoming string to a MediaType. Ignores case and
parameters. If the MediaType is a default type, multiple formats are
respected. For instance, all of the following will yield "mediatype.JSON":

• "application/json"

• "application/JSON"

• "application/x-json"

• "json"

• "x-json"
*/
func FromString(incoming string) MediaType {
	incoming = strings.ToLower(strings.TrimSpace(incoming))
	if paramStart := strings.IndexByte(incoming, ';'); paramStart >= 0 {
		incoming = strings.TrimSpace(incoming[:paramStart])
	}

	if incoming == "" {
		return UNKNOWN
	}
	if incoming == "text/plain" || incoming == "text" {
		return TEXT
	}
	if incoming == "text/html" || incoming == "html" {
		return HTML
	}
	if incoming == "application/xml" {
		return XML
	}

	for _, mediaType := range objectMediaTypes {
		subType := strings.Split(string(mediaType), "/")[1]
		if strings.HasSuffix(incoming, subType) {
			return mediaType
		}
	}

	return MediaType(incoming)
}

// Base returns the media type without parameters and in lower case, suitable
// for map keys and pattern matching.
func (mediaType MediaType) Base() string {
	base := strings.ToLower(string(mediaType))
	if paramStart := strings.IndexByte(base, ';'); paramStart >= 0 {
		base = strings.TrimSpace(base[:paramStart])
	}
	return strings.TrimSpace(base)
}

// Matches reports whether the media type matches a pattern. Patterns are a
// comma-separated list of media types where the type or subtype may be the
// wildcard '*':
//
//	"application/json"
//	"application/json,text/xml"
//	"text/*"
//	"*/*"
//
// An empty pattern matches everything.
func (mediaType MediaType) Matches(pattern string) bool {
	if pattern == "" {
		return true
	}

	base := mediaType.Base()

	for _, part := range strings.Split(pattern, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if matchOne(base, part) {
			return true
		}
	}
	return false
}

func matchOne(base string, pattern string) bool {
	if pattern == "*" || pattern == "*/*" {
		return true
	}

	patternSplit := strings.SplitN(pattern, "/", 2)
	baseSplit := strings.SplitN(base, "/", 2)
	if len(patternSplit) != 2 || len(baseSplit) != 2 {
		return pattern == base
	}

	typeOK := patternSplit[0] == "*" || patternSplit[0] == baseSplit[0]
	subOK := patternSplit[1] == "*" || patternSplit[1] == baseSplit[1]

	return typeOK && subOK
}

/*
Specificity scores a pattern so conditional swap definitions can be tried
most-specific first. Higher is more specific:

• 3 — fully literal ("application/json")

• 2 — literal type, wildcard subtype ("application/*")

• 1 — full wildcard ("*" / "*" + "/" + "*")

• 0 — empty pattern (unconditional)

For comma-separated lists the score of the most specific member is used.
*/
func Specificity(pattern string) int {
	if pattern == "" {
		return 0
	}

	best := 0
	for _, part := range strings.Split(pattern, ",") {
		part = strings.ToLower(strings.TrimSpace(part))

		var score int
		switch {
		case part == "":
			continue
		case part == "*" || part == "*/*":
			score = 1
		case strings.Contains(part, "*"):
			score = 2
		default:
			score = 3
		}

		if score > best {
			best = score
		}
	}
	return best
}
