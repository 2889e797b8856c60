package encoding

import (
	"bytes"
	"io"
	"reflect"

	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/classify"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/swaps"
	"github.com/illuscio-dev/pojotools-go/walk"
)

// Type helpers
type serializerMapping map[mediatype.MediaType]Serializer
type parserMapping map[mediatype.MediaType]Parser

// Interface for defining a content serializer.
type Serializer interface {
	// To be implemented by content serializer. Implementation is expected to
	// write content to writer. The content engine which is calling Serialize
	// is made available through engine, allowing serializers to access
	// engine-level settings and the shared tree walker.
	Serialize(engine ContentEngine, writer io.Writer, content interface{}) error
}

// Interface for defining a content parser.
type Parser interface {
	// To be implemented by content parser. Implementation is expected to read
	// content from reader and reconstruct it into contentReceiver, which is
	// always a pointer to the target value.
	Parse(engine ContentEngine, reader io.Reader, contentReceiver interface{}) error
}

/*
ContentEngine details the contract for a content encoding engine. The goal of
the content engine is to allow a common serialize and parse methodology for
any supported media type, so payload encodings can be negotiated per-request
and support for a media type is added once for an entire ecosystem.
*/
type ContentEngine interface {
	// Registers a serializer for a given media type.
	SetSerializer(mediaType mediatype.MediaType, serializer Serializer)

	// Registers a parser for a given media type.
	SetParser(mediaType mediatype.MediaType, parser Parser)

	// Returns true if the engine has a registered serializer for the media
	// type.
	HandlesSerialize(mediaType mediatype.MediaType) bool

	// Returns true if the engine has a registered parser for the media type.
	HandlesParse(mediaType mediatype.MediaType) bool

	// Returns true if the engine has a registered serializer AND parser for
	// the media type.
	Handles(mediaType mediatype.MediaType) bool

	// Whether the engine will attempt to parse unknown media types.
	SniffType() bool

	// Serialize content as mediaType to writer.
	Serialize(
		mediaType mediatype.MediaType,
		content interface{},
		writer io.Writer,
	) error

	// Parse mediaType content from reader. Parsed content is stored in
	// contentReceiver, which must be a non-nil pointer.
	Parse(
		mediaType mediatype.MediaType,
		contentReceiver interface{},
		reader io.Reader,
	) error

	// The tree walker shared by every format module on this engine.
	Walker() *walk.Walker

	// The swap registry backing the walker. Populate during setup, then
	// Freeze().
	SwapRegistry() *swaps.Registry
}

/*
PojoEngine is the default implementation of the ContentEngine interface.
Implementation is done through an interface so that the engine can be
extended through type wrapping.

Instantiation

Use NewContentEngine() to create a new PojoEngine.

Default media types

• application/json

• text/xml

• text/html (serialize only)

• text/uon

• application/x-www-form-urlencoded

• application/msgpack

• application/bson

• application/yaml

• text/plain

Every object format runs the same pipeline: the engine's tree walker
classifies and swaps the object graph, and the format module encodes the
resulting structure. Swap definitions registered through SwapRegistry()
therefore apply to every format at once.

Type sniffing

If created with "sniffMediaType" set to true, when parsing the engine will
attempt to use each parser until one does not return an error or panic.
Because parsers are internally stored in a map, the order of these attempts
is not guaranteed to be consistent.

Panics

If a serializer or parser panics during execution, that panic is caught and
returned as an error.
*/
type PojoEngine struct {
	// MediaType:Serializer mapping
	serializers serializerMapping
	// MediaType:Parser mapping
	parsers parserMapping
	// List of all registered parsers. Used for sniffing media type.
	parserList []Parser
	// Whether to attempt parsing when no explicit media type is known.
	sniffMediaType bool

	// The walker every format module runs through.
	walker *walk.Walker
	// Swap registry backing the walker.
	swapRegistry *swaps.Registry

	// JSON handle for the default JSON serializer.
	jsonHandle *codec.JsonHandle
	// Msgpack handle for the default MessagePack serializer.
	msgpackHandle *codec.MsgpackHandle

	// Engine to pass to Serializer.Serialize() and Parser.Parse() methods.
	passedEngine ContentEngine
}

// Change the engine passed into Serializer.Serialize() and Parser.Parse().
func (engine *PojoEngine) SetPassedEngine(newEngine ContentEngine) {
	engine.passedEngine = newEngine
}

// Register a serializer for a given mediaType.
func (engine *PojoEngine) SetSerializer(
	mediaType mediatype.MediaType, serializer Serializer,
) {
	engine.serializers[normalizeKey(mediaType)] = serializer
}

// Register a parser for a given mediaType.
func (engine *PojoEngine) SetParser(
	mediaType mediatype.MediaType, parser Parser,
) {
	engine.parsers[normalizeKey(mediaType)] = parser

	// Cache a list of all the parsers we can use when media type sniffing.
	// Because of this SNIFF ORDER IS NOT GUARANTEED.
	engine.parserList = make([]Parser, 0, len(engine.parsers))
	for _, registered := range engine.parsers {
		engine.parserList = append(engine.parserList, registered)
	}
}

// Whether the engine will attempt to parse UNKNOWN content.
func (engine *PojoEngine) SniffType() bool {
	return engine.sniffMediaType
}

// Whether the engine has a registered serializer for mediaType.
func (engine *PojoEngine) HandlesSerialize(mediaType mediatype.MediaType) bool {
	_, ok := engine.serializers[normalizeKey(mediaType)]
	return ok
}

// Whether the engine has a registered parser for mediaType.
func (engine *PojoEngine) HandlesParse(mediaType mediatype.MediaType) bool {
	_, ok := engine.parsers[normalizeKey(mediaType)]
	return ok
}

// Whether the engine has a registered parser AND serializer for mediaType.
func (engine *PojoEngine) Handles(mediaType mediatype.MediaType) bool {
	return engine.HandlesSerialize(mediaType) && engine.HandlesParse(mediaType)
}

// The tree walker shared by every format module on this engine.
func (engine *PojoEngine) Walker() *walk.Walker {
	return engine.walker
}

// The swap registry backing the walker.
func (engine *PojoEngine) SwapRegistry() *swaps.Registry {
	return engine.swapRegistry
}

// Freeze transitions the swap registry to its read-only serving state. Call
// once setup registration is done.
func (engine *PojoEngine) Freeze() {
	engine.swapRegistry.Freeze()
}

// Returns the internal codec.JsonHandle used by the JSON serializer.
func (engine *PojoEngine) JSONHandle() *codec.JsonHandle {
	return engine.jsonHandle
}

// Returns the internal codec.MsgpackHandle used by the MessagePack
// serializer.
func (engine *PojoEngine) MsgpackHandle() *codec.MsgpackHandle {
	return engine.msgpackHandle
}

// JSONExtensionOpts holds options for a codec extension to add to the JSON
// handle during setup.
type JSONExtensionOpts struct {
	ValueType    reflect.Type
	ExtInterface codec.InterfaceExt
}

// Adds JSON extensions to the engine's JSON handle.
func (engine *PojoEngine) AddJSONExtensions(
	extensions []*JSONExtensionOpts,
) error {
	for _, extOpts := range extensions {
		err := engine.jsonHandle.SetInterfaceExt(
			extOpts.ValueType, 1, extOpts.ExtInterface,
		)
		if err != nil {
			return xerrors.Errorf(
				"error adding json extension to content engine: %w", err,
			)
		}
	}
	return nil
}

// Select what engine to pass into the serializer / parser in case we are
// extending the engine type.
func (engine *PojoEngine) getEngine() (passEngine ContentEngine) {
	if engine.passedEngine != nil {
		return engine.passedEngine
	}
	return engine
}

func (engine *PojoEngine) pojoEngine() *PojoEngine {
	return engine
}

// Recovers the underlying PojoEngine from a possibly wrapped engine. Engine
// extensions embed *PojoEngine, so the promoted accessor survives wrapping.
func enginePojo(engine ContentEngine) (*PojoEngine, error) {
	type pojoProvider interface {
		pojoEngine() *PojoEngine
	}
	if provider, ok := engine.(pojoProvider); ok {
		return provider.pojoEngine(), nil
	}
	return nil, xerrors.New("engine does not wrap a PojoEngine")
}

// Runs a serializer while catching panics to return as errors.
func (engine *PojoEngine) safeSerialize(
	serializer Serializer, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during serialize: %w", recovered)
		}
	}()

	return serializer.Serialize(engine.getEngine(), writer, content)
}

// Runs a parser while catching panics to return as errors.
func (engine *PojoEngine) safeParse(
	parser Parser, reader io.Reader, contentReceiver interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during parse: %w", recovered)
		}
	}()

	return parser.Parse(engine.getEngine(), reader, contentReceiver)
}

// Attempts to parse content with all registered parsers until one succeeds
// or all fail.
func (engine *PojoEngine) sniffContent(
	contentReceiver interface{}, reader io.Reader,
) error {
	// We need to read the content multiple times, so load the bytes into a
	// buffer first.
	contentBuffer := bytes.NewBuffer(make([]byte, 0))
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error reading contentBytes: %w", err)
	}

	var parserErr error

	for _, parser := range engine.parserList {
		// Make a buffer for this attempt, otherwise we'll run out of bytes.
		thisReader := bytes.NewBuffer(contentBuffer.Bytes())
		thisErr := engine.safeParse(parser, thisReader, contentReceiver)

		if thisErr == nil {
			return nil
		}

		if parserErr == nil {
			parserErr = thisErr
		} else {
			parserErr = xerrors.Errorf(
				"parse error: %w after: %w", thisErr, parserErr,
			)
		}
	}

	return parserErr
}

// Picks the media type for serializing / parsing objects when the source or
// target media type is unknown.
func pickContentMediaType(
	mediaType mediatype.MediaType, content interface{}, serializing bool,
) mediatype.MediaType {
	if mediaType != mediatype.UNKNOWN {
		return mediaType
	}

	var useType mediatype.MediaType
	switch content.(type) {
	case string, *string:
		useType = mediatype.TEXT
	default:
		useType = mediatype.JSON
	}

	// If we are parsing, we only want to force a text parse if the receiver
	// is a string.
	if serializing || useType == mediatype.TEXT {
		return useType
	}
	return mediaType
}

func (engine *PojoEngine) Parse(
	mediaType mediatype.MediaType,
	contentReceiver interface{},
	reader io.Reader,
) error {
	mediaType = pickContentMediaType(mediaType, contentReceiver, false)

	// Close the reader if it's a closer.
	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	if mediaType == mediatype.UNKNOWN {
		if !engine.SniffType() {
			return xerrors.New("media type is unknown and sniffing is disabled")
		}
		return engine.sniffContent(contentReceiver, reader)
	}

	parser, ok := engine.parsers[normalizeKey(mediaType)]
	if !ok {
		return xerrors.New("no parser for " + string(mediaType))
	}

	if err := engine.safeParse(parser, reader, contentReceiver); err != nil {
		return xerrors.Errorf("parse err: %w", err)
	}
	return nil
}

func (engine *PojoEngine) Serialize(
	mediaType mediatype.MediaType,
	content interface{},
	writer io.Writer,
) error {
	mediaType = pickContentMediaType(mediaType, content, true)

	serializer, ok := engine.serializers[normalizeKey(mediaType)]
	if !ok {
		return xerrors.New("no serializer for " + string(mediaType))
	}

	if err := engine.safeSerialize(serializer, writer, content); err != nil {
		return xerrors.Errorf("serialize err: %w", err)
	}
	return nil
}

func normalizeKey(mediaType mediatype.MediaType) mediatype.MediaType {
	return mediatype.FromString(string(mediaType))
}

var mapStringInterfaceType = reflect.TypeOf(map[string]interface{}{})

/*
NewContentEngine creates a PojoEngine with the default format modules, the
default swap registry, and a fresh categorizer and tree walker.

The swap registry is returned unfrozen: register application swaps through
SwapRegistry(), then call Freeze() before serving concurrent traffic.
*/
func NewContentEngine(allowSniff bool) (*PojoEngine, error) {
	swapRegistry := swaps.NewDefaultRegistry()
	categorizer := classify.NewCategorizer(swapRegistry)
	executor := swaps.NewExecutor(swapRegistry)
	walker := walk.NewWalker(categorizer, executor)

	msgpackHandle := &codec.MsgpackHandle{}
	msgpackHandle.RawToString = true
	msgpackHandle.MapType = mapStringInterfaceType

	engine := &PojoEngine{
		serializers:    make(serializerMapping),
		parsers:        make(parserMapping),
		sniffMediaType: allowSniff,
		walker:         walker,
		swapRegistry:   swapRegistry,
		jsonHandle:     &codec.JsonHandle{},
		msgpackHandle:  msgpackHandle,
	}

	engine.SetSerializer(mediatype.JSON, &jsonSerializer{})
	engine.SetSerializer(mediatype.XML, &xmlSerializer{})
	engine.SetSerializer(mediatype.HTML, &htmlSerializer{})
	engine.SetSerializer(mediatype.UON, &uonSerializer{})
	engine.SetSerializer(mediatype.URLENC, &urlencSerializer{})
	engine.SetSerializer(mediatype.MSGPACK, &msgpackSerializer{})
	engine.SetSerializer(mediatype.BSON, &bsonSerializer{})
	engine.SetSerializer(mediatype.YAML, &yamlSerializer{})
	engine.SetSerializer(mediatype.TEXT, &textSerializer{})

	engine.SetParser(mediatype.JSON, &jsonSerializer{})
	engine.SetParser(mediatype.XML, &xmlSerializer{})
	engine.SetParser(mediatype.UON, &uonSerializer{})
	engine.SetParser(mediatype.URLENC, &urlencSerializer{})
	engine.SetParser(mediatype.MSGPACK, &msgpackSerializer{})
	engine.SetParser(mediatype.BSON, &bsonSerializer{})
	engine.SetParser(mediatype.YAML, &yamlSerializer{})
	engine.SetParser(mediatype.TEXT, &textSerializer{})

	return engine, nil
}
