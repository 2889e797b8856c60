package encoding

import (
	"encoding/json"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

// Default JSON format module for PojoEngine.
//
// Serialization walks content into an ordered tree and hands it to the
// engine's codec.JsonHandle, so key order survives. Parsing uses a
// token-level reader so objects land in OrderedMaps instead of unordered Go
// maps.
type jsonSerializer struct{}

func (serializer *jsonSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	pojoEngine, err := enginePojo(engine)
	if err != nil {
		return err
	}

	tree, err := walkToTree(engine, content, mediatype.JSON)
	if err != nil {
		return err
	}

	jsonEncoder := codec.NewEncoder(writer, pojoEngine.jsonHandle)
	return jsonEncoder.Encode(treeToCodec(tree))
}

func (serializer *jsonSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	tree, err := readJSONTree(reader)
	if err != nil {
		return err
	}
	return assembleInto(engine, tree, contentReceiver, mediatype.JSON)
}

func readJSONTree(reader io.Reader) (interface{}, error) {
	decoder := gojson.NewDecoder(reader)
	decoder.UseNumber()
	return readJSONValue(decoder)
}

func readJSONValue(decoder *gojson.Decoder) (interface{}, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, xerrors.Errorf("error reading json token: %w", err)
	}
	return jsonTokenValue(decoder, token)
}

func jsonTokenValue(
	decoder *gojson.Decoder, token json.Token,
) (interface{}, error) {
	switch typed := token.(type) {
	case json.Delim:
		switch typed {
		case '{':
			orderedMap := pojotypes.NewOrderedMap()
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, xerrors.Errorf("error reading json key: %w", err)
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, xerrors.Errorf(
						"json object key is %T, not string", keyToken,
					)
				}

				value, err := readJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				orderedMap.Set(key, value)
			}
			// Consume the closing brace.
			if _, err := decoder.Token(); err != nil {
				return nil, xerrors.Errorf("error reading json delimiter: %w", err)
			}
			return orderedMap, nil

		case '[':
			sequence := make([]interface{}, 0)
			for decoder.More() {
				element, err := readJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				sequence = append(sequence, element)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, xerrors.Errorf("error reading json delimiter: %w", err)
			}
			return sequence, nil
		}
		return nil, xerrors.Errorf("unexpected json delimiter %v", typed)

	case json.Number:
		return typed, nil

	default:
		// string, bool or nil.
		return typed, nil
	}
}
