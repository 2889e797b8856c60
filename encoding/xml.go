package encoding

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

/*
XML format module.

The grammar is structural: maps render as <object> with one child element per
entry (the entry key is the element name), sequences render as <array> with
<item> children, nulls as <null/>, and root scalars wrap in <string>,
<number> or <boolean>. Unlike the tree-marshalling formats, the serializer
consumes walk events directly.
*/
type xmlSerializer struct{}

func (serializer *xmlSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	emitter := &xmlEmitter{writer: writer}
	return engine.Walker().Walk(content, mediatype.XML, emitter)
}

func (serializer *xmlSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	tree, err := readXMLTree(reader)
	if err != nil {
		return err
	}
	return assembleInto(engine, tree, contentReceiver, mediatype.XML)
}

// Emitter writing XML tokens as walk events arrive. openNames carries the
// element opened for each in-flight value so it can be closed when the value
// completes.
type xmlEmitter struct {
	writer    io.Writer
	frames    []byte // 'm' for map, 's' for sequence
	openNames []string
}

func (emitter *xmlEmitter) write(text string) error {
	_, err := io.WriteString(emitter.writer, text)
	return err
}

func (emitter *xmlEmitter) writeEscaped(text string) error {
	return xml.EscapeText(emitter.writer, []byte(text))
}

// Called at the start of every value. Sequence elements open their <item>
// wrapper here; map values were already opened by MapKey.
func (emitter *xmlEmitter) beginValue() error {
	if len(emitter.frames) == 0 {
		return nil
	}
	if emitter.frames[len(emitter.frames)-1] == 's' {
		emitter.openNames = append(emitter.openNames, "item")
		return emitter.write("<item>")
	}
	return nil
}

// Called when a value completes: closes the element opened for it.
func (emitter *xmlEmitter) endValue() error {
	if len(emitter.frames) == 0 {
		return nil
	}
	name := emitter.openNames[len(emitter.openNames)-1]
	emitter.openNames = emitter.openNames[:len(emitter.openNames)-1]
	return emitter.write("</" + name + ">")
}

func (emitter *xmlEmitter) EnterMap() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.frames = append(emitter.frames, 'm')
	return emitter.write("<object>")
}

func (emitter *xmlEmitter) MapKey(key string) error {
	emitter.openNames = append(emitter.openNames, key)
	return emitter.write("<" + key + ">")
}

func (emitter *xmlEmitter) ExitMap() error {
	emitter.frames = emitter.frames[:len(emitter.frames)-1]
	if err := emitter.write("</object>"); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *xmlEmitter) EnterSequence() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.frames = append(emitter.frames, 's')
	return emitter.write("<array>")
}

func (emitter *xmlEmitter) ExitSequence() error {
	emitter.frames = emitter.frames[:len(emitter.frames)-1]
	if err := emitter.write("</array>"); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *xmlEmitter) Scalar(value interface{}) error {
	if err := emitter.beginValue(); err != nil {
		return err
	}

	// Root scalars carry their own type element.
	atRoot := len(emitter.frames) == 0

	text, kind := xmlScalarText(value)
	if atRoot {
		if err := emitter.write("<" + kind + ">"); err != nil {
			return err
		}
	}
	if err := emitter.writeEscaped(text); err != nil {
		return err
	}
	if atRoot {
		return emitter.write("</" + kind + ">")
	}
	return emitter.endValue()
}

func (emitter *xmlEmitter) Null() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	if err := emitter.write("<null/>"); err != nil {
		return err
	}
	if len(emitter.frames) == 0 {
		return nil
	}
	return emitter.endValue()
}

func (emitter *xmlEmitter) Recursion(reference interface{}) error {
	return emitter.Null()
}

func xmlScalarText(value interface{}) (text string, kind string) {
	switch typed := value.(type) {
	case string:
		return typed, "string"
	case bool:
		return strconv.FormatBool(typed), "boolean"
	case int64:
		return strconv.FormatInt(typed, 10), "number"
	case uint64:
		return strconv.FormatUint(typed, 10), "number"
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64), "number"
	}
	return "", "string"
}

func readXMLTree(reader io.Reader) (interface{}, error) {
	decoder := xml.NewDecoder(reader)

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, xerrors.Errorf("error reading xml: %w", err)
		}
		if start, ok := token.(xml.StartElement); ok {
			return readXMLElement(decoder, start)
		}
	}
}

// Reads a structural element: <object>, <array>, <null/> or a typed root
// scalar.
func readXMLElement(
	decoder *xml.Decoder, start xml.StartElement,
) (interface{}, error) {
	switch start.Name.Local {
	case "object":
		orderedMap := pojotypes.NewOrderedMap()
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, xerrors.Errorf("error reading xml object: %w", err)
			}
			switch typed := token.(type) {
			case xml.StartElement:
				value, err := readXMLValue(decoder, typed)
				if err != nil {
					return nil, err
				}
				orderedMap.Set(typed.Name.Local, value)
			case xml.EndElement:
				return orderedMap, nil
			}
		}

	case "array":
		sequence := make([]interface{}, 0)
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, xerrors.Errorf("error reading xml array: %w", err)
			}
			switch typed := token.(type) {
			case xml.StartElement:
				element, err := readXMLValue(decoder, typed)
				if err != nil {
					return nil, err
				}
				sequence = append(sequence, element)
			case xml.EndElement:
				return sequence, nil
			}
		}

	case "null":
		if err := decoder.Skip(); err != nil {
			return nil, xerrors.Errorf("error reading xml null: %w", err)
		}
		return nil, nil

	case "string", "number", "boolean":
		text, err := collectXMLText(decoder)
		if err != nil {
			return nil, err
		}
		switch start.Name.Local {
		case "number":
			return json.Number(text), nil
		case "boolean":
			return text == "true", nil
		}
		return text, nil
	}

	return nil, xerrors.Errorf("unexpected xml element <%s>", start.Name.Local)
}

// Reads the contents of a key / item element: either character data (a
// scalar string) or exactly one structural child.
func readXMLValue(
	decoder *xml.Decoder, parent xml.StartElement,
) (interface{}, error) {
	var text strings.Builder
	var structural interface{}
	seenStructural := false

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, xerrors.Errorf(
				"error reading xml value of <%s>: %w", parent.Name.Local, err,
			)
		}

		switch typed := token.(type) {
		case xml.CharData:
			text.Write(typed)
		case xml.StartElement:
			structural, err = readXMLElement(decoder, typed)
			if err != nil {
				return nil, err
			}
			seenStructural = true
		case xml.EndElement:
			if seenStructural {
				return structural, nil
			}
			return text.String(), nil
		}
	}
}

func collectXMLText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", xerrors.Errorf("error reading xml text: %w", err)
		}
		switch typed := token.(type) {
		case xml.CharData:
			text.Write(typed)
		case xml.EndElement:
			return text.String(), nil
		}
	}
}
