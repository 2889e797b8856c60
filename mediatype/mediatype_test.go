package mediatype_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/pojotools-go/mediatype"
)

func TestFromString(test *testing.T) {
	testCases := []struct {
		incoming string
		expected mediatype.MediaType
	}{
		{"application/json", mediatype.JSON},
		{"application/JSON", mediatype.JSON},
		{"application/x-json", mediatype.JSON},
		{"json", mediatype.JSON},
		{"x-json", mediatype.JSON},
		{"application/json; charset=utf-8", mediatype.JSON},
		{"text/xml", mediatype.XML},
		{"application/xml", mediatype.XML},
		{"text/html", mediatype.HTML},
		{"text/uon", mediatype.UON},
		{"application/x-www-form-urlencoded", mediatype.URLENC},
		{"msgpack", mediatype.MSGPACK},
		{"x-msgpack", mediatype.MSGPACK},
		{"application/bson", mediatype.BSON},
		{"yaml", mediatype.YAML},
		{"text/plain", mediatype.TEXT},
		{"text", mediatype.TEXT},
		{"", mediatype.UNKNOWN},
		{"text/csv", mediatype.MediaType("text/csv")},
	}

	for _, testCase := range testCases {
		test.Run(testCase.incoming, func(test *testing.T) {
			assert.Equal(
				test, testCase.expected, mediatype.FromString(testCase.incoming),
			)
		})
	}
}

func TestFromHeader(test *testing.T) {
	assert := assert.New(test)

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	assert.Equal(mediatype.JSON, mediatype.FromHeader(headers))
}

func TestBaseStripsParams(test *testing.T) {
	assert := assert.New(test)

	withParams := mediatype.MediaType("Application/JSON; charset=utf-8")
	assert.Equal("application/json", withParams.Base())
}

func TestMatches(test *testing.T) {
	testCases := []struct {
		name      string
		mediaType mediatype.MediaType
		pattern   string
		expected  bool
	}{
		{"empty pattern", mediatype.JSON, "", true},
		{"full wildcard", mediatype.JSON, "*/*", true},
		{"literal hit", mediatype.JSON, "application/json", true},
		{"literal miss", mediatype.JSON, "text/xml", false},
		{"subtype wildcard hit", mediatype.JSON, "application/*", true},
		{"subtype wildcard miss", mediatype.JSON, "text/*", false},
		{"list hit", mediatype.XML, "application/json,text/xml", true},
		{"list miss", mediatype.YAML, "application/json,text/xml", false},
		{"params ignored", mediatype.MediaType(
			"application/json; charset=utf-8",
		), "application/json", true},
	}

	for _, testCase := range testCases {
		test.Run(testCase.name, func(test *testing.T) {
			assert.Equal(
				test,
				testCase.expected,
				testCase.mediaType.Matches(testCase.pattern),
			)
		})
	}
}

func TestSpecificity(test *testing.T) {
	testCases := []struct {
		pattern  string
		expected int
	}{
		{"", 0},
		{"*/*", 1},
		{"*", 1},
		{"application/*", 2},
		{"application/json", 3},
		{"text/*,application/json", 3},
	}

	for _, testCase := range testCases {
		test.Run(testCase.pattern, func(test *testing.T) {
			assert.Equal(
				test, testCase.expected, mediatype.Specificity(testCase.pattern),
			)
		})
	}
}
