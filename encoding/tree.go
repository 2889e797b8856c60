package encoding

import (
	"fmt"
	"reflect"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
	"github.com/illuscio-dev/pojotools-go/walk"
)

// Runs content through the engine's tree walker, materializing the generic
// ordered tree the tree-marshalling format modules encode.
func walkToTree(
	engine ContentEngine, content interface{}, mediaType mediatype.MediaType,
) (interface{}, error) {
	emitter := walk.NewTreeEmitter()
	if err := engine.Walker().Walk(content, mediaType, emitter); err != nil {
		return nil, err
	}
	return emitter.Tree(), nil
}

// Assembles a parsed generic tree into contentReceiver, which must be a
// non-nil pointer.
func assembleInto(
	engine ContentEngine,
	tree interface{},
	contentReceiver interface{},
	mediaType mediatype.MediaType,
) error {
	receiverValue := reflect.ValueOf(contentReceiver)
	if receiverValue.Kind() != reflect.Ptr || receiverValue.IsNil() {
		return xerrors.New("content receiver must be a non-nil pointer")
	}

	targetType := receiverValue.Elem().Type()

	assembled, err := engine.Walker().Assemble(tree, targetType, mediaType)
	if err != nil {
		return err
	}
	if assembled == nil {
		receiverValue.Elem().Set(reflect.Zero(targetType))
		return nil
	}

	produced := reflect.ValueOf(assembled)
	if produced.Type() != targetType {
		if !produced.Type().AssignableTo(targetType) &&
			produced.Type().ConvertibleTo(targetType) {
			produced = produced.Convert(targetType)
		}
	}
	if !produced.Type().AssignableTo(targetType) {
		return xerrors.Errorf(
			"parsed %s cannot be stored in receiver of type %s",
			produced.Type().String(), targetType.String(),
		)
	}

	receiverValue.Elem().Set(produced)
	return nil
}

// codecPairs is an ordered key / value pair list the ugorji codec encodes as
// a map, preserving entry order.
type codecPairs []interface{}

// MapBySlice marks the slice as map-shaped for the codec library.
func (codecPairs) MapBySlice() {}

// Converts a generic tree into codec-encodable form: OrderedMaps become
// ordered pair lists, sequences convert element-wise.
func treeToCodec(node interface{}) interface{} {
	switch typed := node.(type) {
	case *pojotypes.OrderedMap:
		pairs := make(codecPairs, 0, typed.Len()*2)
		for _, key := range typed.Keys() {
			entry, _ := typed.Get(key)
			pairs = append(pairs, key, treeToCodec(entry))
		}
		return pairs

	case []interface{}:
		converted := make([]interface{}, len(typed))
		for i, element := range typed {
			converted[i] = treeToCodec(element)
		}
		return converted
	}
	return node
}

// Renders a non-string decoded map key as text.
func scalarKeyText(key interface{}) string {
	return fmt.Sprint(key)
}
