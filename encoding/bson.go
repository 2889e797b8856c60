package encoding

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojoerrors"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

// BsonListSepString is a delimiter for top-level bson lists, which bson does
// not normally support. When multiple documents are being sent in a single
// payload, the unicode SYMBOL FOR RECORD SEPARATOR is used.
// (http://fileformat.info/info/unicode/char/241e/index.htm)
const BsonListSepString = "␞"

// BsonListSepBytes is a byte representation of BsonListSepString.
var BsonListSepBytes = []byte(BsonListSepString)

// split function used to separate the bson records.
func splitBsonFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, BsonListSepBytes); i >= 0 {
		return i + 3, data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return advance, token, err
}

// BSON format module, built on the mongo driver's document types. Ordered
// trees encode through bson.D, so entry order survives. Top-level sequences
// become separator-joined document streams; root scalars are not
// representable and raise MediaTypeError.
type bsonSerializer struct{}

func (serializer *bsonSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	tree, err := walkToTree(engine, content, mediatype.BSON)
	if err != nil {
		return err
	}

	switch typed := tree.(type) {
	case *pojotypes.OrderedMap:
		return serializer.writeDocument(writer, typed)

	case []interface{}:
		finalIndex := len(typed) - 1
		for index, element := range typed {
			document, ok := element.(*pojotypes.OrderedMap)
			if !ok {
				return pojoerrors.MediaTypeError.New(
					"bson sequences may only hold documents", nil, nil,
				)
			}
			if err = serializer.writeDocument(writer, document); err != nil {
				return err
			}
			if index != finalIndex {
				if _, err = writer.Write(BsonListSepBytes); err != nil {
					return xerrors.Errorf(
						"error writing document separator: %w", err,
					)
				}
			}
		}
		return nil
	}

	return pojoerrors.MediaTypeError.New(
		"bson content must be a document or document sequence", nil, nil,
	)
}

func (serializer *bsonSerializer) writeDocument(
	writer io.Writer, document *pojotypes.OrderedMap,
) error {
	marshalled, err := bson.Marshal(treeToBsonValue(document))
	if err != nil {
		return xerrors.Errorf("error marshalling bson: %w", err)
	}
	_, err = writer.Write(marshalled)
	return err
}

func (serializer *bsonSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return xerrors.Errorf("error reading bson: %w", err)
	}

	var tree interface{}
	if bytes.Contains(raw, BsonListSepBytes) {
		documents := make([]interface{}, 0)
		docScanner := bufio.NewScanner(bytes.NewReader(raw))
		docScanner.Split(splitBsonFunc)
		for docScanner.Scan() {
			document, err := readBsonDocument(docScanner.Bytes())
			if err != nil {
				return err
			}
			documents = append(documents, document)
		}
		tree = documents
	} else {
		tree, err = readBsonDocument(raw)
		if err != nil {
			return err
		}
	}

	return assembleInto(engine, tree, contentReceiver, mediatype.BSON)
}

func readBsonDocument(raw []byte) (interface{}, error) {
	var document bson.D
	if err := bson.Unmarshal(raw, &document); err != nil {
		return nil, xerrors.Errorf("error unmarshalling bson: %w", err)
	}
	return bsonValueToTree(document), nil
}

// Converts an intermediate tree into the mongo driver's document types.
func treeToBsonValue(node interface{}) interface{} {
	switch typed := node.(type) {
	case *pojotypes.OrderedMap:
		document := make(bson.D, 0, typed.Len())
		for _, key := range typed.Keys() {
			entry, _ := typed.Get(key)
			document = append(
				document, bson.E{Key: key, Value: treeToBsonValue(entry)},
			)
		}
		return document

	case []interface{}:
		array := make(bson.A, len(typed))
		for index, element := range typed {
			array[index] = treeToBsonValue(element)
		}
		return array

	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
		parsed, _ := typed.Float64()
		return parsed

	case uint64:
		return int64(typed)
	}
	return node
}

// Converts the mongo driver's decode output back into the intermediate tree
// shapes.
func bsonValueToTree(value interface{}) interface{} {
	switch typed := value.(type) {
	case bson.D:
		orderedMap := pojotypes.NewOrderedMap()
		for _, element := range typed {
			orderedMap.Set(element.Key, bsonValueToTree(element.Value))
		}
		return orderedMap

	case bson.A:
		sequence := make([]interface{}, len(typed))
		for index, element := range typed {
			sequence[index] = bsonValueToTree(element)
		}
		return sequence

	case primitive.Binary:
		if typed.Subtype == 0x3 || typed.Subtype == 0x4 {
			if id, err := uuid.FromBytes(typed.Data); err == nil {
				return id.String()
			}
		}
		return hex.EncodeToString(typed.Data)

	case primitive.DateTime:
		milli := int64(typed)
		stamp := time.Unix(
			milli/1000, (milli%1000)*int64(time.Millisecond),
		).UTC()
		return stamp.Format(time.RFC3339Nano)

	case int32:
		return int64(typed)
	}
	return value
}
