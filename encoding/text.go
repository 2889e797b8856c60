package encoding

import (
	"bytes"
	"io"
	"reflect"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/convert"
)

// Handles serializing to / parsing from text/plain.
type textSerializer struct{}

func (serializer *textSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	_, err := io.WriteString(writer, convert.ToString(content))
	return err
}

func (serializer *textSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(reader); err != nil {
		return err
	}
	text := buffer.String()

	if stringPointer, ok := contentReceiver.(*string); ok {
		*stringPointer = text
		return nil
	}

	// Non-string receivers get a single string-to-value conversion.
	receiverValue := reflect.ValueOf(contentReceiver)
	if receiverValue.Kind() != reflect.Ptr || receiverValue.IsNil() {
		return xerrors.New(
			"content receiver must be a non-nil pointer to receive text",
		)
	}

	targetType := receiverValue.Elem().Type()
	if !convert.HasFromString(targetType) {
		return xerrors.Errorf(
			"text content cannot be converted to receiver of type %s",
			targetType.String(),
		)
	}

	parsed, err := convert.FromString(targetType, text)
	if err != nil {
		return err
	}
	if parsed == nil {
		receiverValue.Elem().Set(reflect.Zero(targetType))
		return nil
	}

	produced := reflect.ValueOf(parsed)
	if produced.Type() != targetType &&
		!produced.Type().AssignableTo(targetType) &&
		produced.Type().ConvertibleTo(targetType) {
		produced = produced.Convert(targetType)
	}
	receiverValue.Elem().Set(produced)
	return nil
}
