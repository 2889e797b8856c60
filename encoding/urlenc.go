package encoding

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

/*
URL-encoding format module.

Top-level map entries become query pairs, with each value rendered in the
UON grammar and percent-escaped. Content that is not a map at the top level
travels as a single "_value" pair.
*/
type urlencSerializer struct{}

const urlencValueKey = "_value"

func (serializer *urlencSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	tree, err := walkToTree(engine, content, mediatype.URLENC)
	if err != nil {
		return err
	}

	var builder strings.Builder
	if orderedMap, ok := tree.(*pojotypes.OrderedMap); ok {
		for index, key := range orderedMap.Keys() {
			if index > 0 {
				builder.WriteByte('&')
			}
			value, _ := orderedMap.Get(key)
			builder.WriteString(url.QueryEscape(key))
			builder.WriteByte('=')
			builder.WriteString(url.QueryEscape(uonRenderTree(value)))
		}
	} else {
		builder.WriteString(urlencValueKey)
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(uonRenderTree(tree)))
	}

	_, err = io.WriteString(writer, builder.String())
	return err
}

func (serializer *urlencSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return xerrors.Errorf("error reading url-encoded content: %w", err)
	}

	orderedMap := pojotypes.NewOrderedMap()
	text := strings.TrimSpace(string(raw))
	if text != "" {
		for _, pair := range strings.Split(text, "&") {
			key, value, err := parseURLEncPair(pair)
			if err != nil {
				return err
			}
			orderedMap.Set(key, value)
		}
	}

	// A lone "_value" pair unwraps back to the scalar or container it
	// carried.
	var tree interface{} = orderedMap
	if orderedMap.Len() == 1 {
		if value, ok := orderedMap.Get(urlencValueKey); ok {
			tree = value
		}
	}

	return assembleInto(engine, tree, contentReceiver, mediatype.URLENC)
}

func parseURLEncPair(pair string) (string, interface{}, error) {
	split := strings.SplitN(pair, "=", 2)
	key, err := url.QueryUnescape(split[0])
	if err != nil {
		return "", nil, xerrors.Errorf("error unescaping query key: %w", err)
	}

	rawValue := ""
	if len(split) == 2 {
		rawValue, err = url.QueryUnescape(split[1])
		if err != nil {
			return "", nil, xerrors.Errorf("error unescaping query value: %w", err)
		}
	}
	if rawValue == "" {
		return key, "", nil
	}

	uonReader := &uonReader{text: rawValue}
	value, err := uonReader.readValue()
	if err != nil {
		return "", nil, err
	}
	if uonReader.pos != len(uonReader.text) {
		// Not valid UON as a whole: treat the raw text as a plain string.
		return key, rawValue, nil
	}
	return key, value, nil
}

// Renders an intermediate tree node in the UON grammar.
func uonRenderTree(node interface{}) string {
	var builder strings.Builder
	uonRenderNode(&builder, node)
	return builder.String()
}

func uonRenderNode(builder *strings.Builder, node interface{}) {
	switch typed := node.(type) {
	case nil:
		builder.WriteString("null")
	case *pojotypes.OrderedMap:
		builder.WriteByte('(')
		for index, key := range typed.Keys() {
			if index > 0 {
				builder.WriteByte(',')
			}
			value, _ := typed.Get(key)
			builder.WriteString(uonEncodeString(key))
			builder.WriteByte('=')
			uonRenderNode(builder, value)
		}
		builder.WriteByte(')')
	case []interface{}:
		builder.WriteString("@(")
		for index, element := range typed {
			if index > 0 {
				builder.WriteByte(',')
			}
			uonRenderNode(builder, element)
		}
		builder.WriteByte(')')
	case json.Number:
		builder.WriteString(typed.String())
	default:
		builder.WriteString(uonScalarText(typed))
	}
}
