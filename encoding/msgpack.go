package encoding

import (
	"io"
	"sort"

	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

// MessagePack format module, built on the engine's codec.MsgpackHandle.
// Serialization goes through the ordered tree so map order survives on the
// wire; the wire format itself does not mark order on decode, so parsed
// maps come back key-sorted.
type msgpackSerializer struct{}

func (serializer *msgpackSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	pojoEngine, err := enginePojo(engine)
	if err != nil {
		return err
	}

	tree, err := walkToTree(engine, content, mediatype.MSGPACK)
	if err != nil {
		return err
	}

	msgpackEncoder := codec.NewEncoder(writer, pojoEngine.msgpackHandle)
	return msgpackEncoder.Encode(treeToCodec(tree))
}

func (serializer *msgpackSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	pojoEngine, err := enginePojo(engine)
	if err != nil {
		return err
	}

	var decoded interface{}
	msgpackDecoder := codec.NewDecoder(reader, pojoEngine.msgpackHandle)
	if err := msgpackDecoder.Decode(&decoded); err != nil {
		return xerrors.Errorf("error decoding msgpack: %w", err)
	}

	return assembleInto(
		engine, normalizeDecoded(decoded), contentReceiver, mediatype.MSGPACK,
	)
}

// Converts the codec library's generic decode output into the intermediate
// tree shapes.
func normalizeDecoded(decoded interface{}) interface{} {
	switch typed := decoded.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		orderedMap := pojotypes.NewOrderedMap()
		for _, key := range keys {
			orderedMap.Set(key, normalizeDecoded(typed[key]))
		}
		return orderedMap

	case map[interface{}]interface{}:
		keys := make([]string, 0, len(typed))
		byText := make(map[string]interface{}, len(typed))
		for key, value := range typed {
			text, ok := key.(string)
			if !ok {
				text = scalarKeyText(key)
			}
			keys = append(keys, text)
			byText[text] = value
		}
		sort.Strings(keys)

		orderedMap := pojotypes.NewOrderedMap()
		for _, key := range keys {
			orderedMap.Set(key, normalizeDecoded(byText[key]))
		}
		return orderedMap

	case []interface{}:
		sequence := make([]interface{}, len(typed))
		for index, element := range typed {
			sequence[index] = normalizeDecoded(element)
		}
		return sequence
	}

	return decoded
}
