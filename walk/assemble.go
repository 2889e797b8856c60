package walk

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/illuscio-dev/pojotools-go/classify"
	"github.com/illuscio-dev/pojotools-go/convert"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojoerrors"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
	"github.com/illuscio-dev/pojotools-go/swaps"
)

// TypeHintKey is the reserved map key carrying a runtime type hint embedded
// in parsed data. Hints resolve through the walker's type dictionary only.
const TypeHintKey = "_type"

/*
Assemble reconstructs a value of targetType from a generic intermediate tree
(*pojotypes.OrderedMap / []interface{} / scalar / nil) produced by a format
parser. Swap definitions are inverted for swap-registered targets, and string
conversions are inverted for string-convertible targets.

A nil intermediate assembles to nil. An unrecognized target fails with
TypeResolutionError.
*/
func (walker *Walker) Assemble(
	intermediate interface{},
	targetType reflect.Type,
	mediaType mediatype.MediaType,
) (interface{}, error) {
	ctx := newContext(mediaType)

	assembled, err := walker.assembleValue(ctx, intermediate, targetType, 0)
	if err != nil {
		return nil, err
	}
	if !assembled.IsValid() {
		return nil, nil
	}
	return assembled.Interface(), nil
}

// The invalid reflect.Value stands for null throughout assembly.
var noValue = reflect.Value{}

func (walker *Walker) assembleValue(
	ctx *Context, node interface{}, targetType reflect.Type, swapDepth int,
) (reflect.Value, error) {
	if node == nil {
		return noValue, nil
	}

	if targetType == nil {
		return reflect.ValueOf(node), nil
	}

	// Specially converted pointer targets (like *time.Location) resolve
	// before pointer peeling.
	if asString, isString := node.(string); isString &&
		targetType.Kind() == reflect.Ptr && convert.HasFromString(targetType) {
		return walker.fromString(targetType, asString)
	}

	if targetType.Kind() == reflect.Ptr {
		assembled, err := walker.assembleValue(
			ctx, node, targetType.Elem(), swapDepth,
		)
		if err != nil || !assembled.IsValid() {
			return noValue, err
		}
		pointer := reflect.New(targetType.Elem())
		pointer.Elem().Set(assembled)
		return pointer, nil
	}

	// Empty interface targets take the generic tree as-is.
	if targetType.Kind() == reflect.Interface && targetType.NumMethod() == 0 {
		return reflect.ValueOf(node), nil
	}

	category := walker.categorizer.Categorize(targetType, ctx.Session.MediaType)

	switch category {
	case classify.SwappedTwoWay, classify.SwappedOneWay:
		return walker.assembleSwapped(ctx, node, targetType, swapDepth)

	case classify.Primitive:
		return walker.assembleScalar(node, targetType)

	case classify.CollectionStandard:
		return walker.assembleContainer(ctx, node, targetType)

	case classify.BeanStandard:
		return walker.assembleBean(ctx, node, targetType)

	case classify.BeanVirtual:
		return walker.assembleVirtual(ctx, node, targetType)

	case classify.StringifiableTwoWay:
		return walker.fromString(targetType, scalarString(node))

	default:
		return noValue, pojoerrors.TypeResolutionError.Newf(
			"%s values (%s) cannot be parsed",
			category.String(), targetType.String(),
		)
	}
}

func (walker *Walker) assembleSwapped(
	ctx *Context, node interface{}, targetType reflect.Type, swapDepth int,
) (reflect.Value, error) {
	if swapDepth >= swaps.MaxSwapDepth {
		return noValue, pojoerrors.SwapLoopError.Newf(
			"inverse swap chain exceeded depth %d at %s",
			swaps.MaxSwapDepth, targetType.String(),
		)
	}

	def := walker.executor.Registry().Lookup(targetType, ctx.Session.MediaType)
	if def == nil {
		return noValue, pojoerrors.TypeResolutionError.Newf(
			"swap definition vanished for %s", targetType.String(),
		)
	}

	// Stage the node as the swap's intermediate type, then invert.
	staged := node
	if def.Target != nil {
		stagedValue, err := walker.assembleValue(
			ctx, node, def.Target, swapDepth+1,
		)
		if err != nil {
			return noValue, err
		}
		if stagedValue.IsValid() {
			staged = stagedValue.Interface()
		} else {
			staged = nil
		}
	}

	restored, err := walker.executor.Backward(ctx.Session, staged, targetType)
	if err != nil {
		return noValue, err
	}

	return conformValue(reflect.ValueOf(restored), targetType)
}

func (walker *Walker) assembleScalar(
	node interface{}, targetType reflect.Type,
) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.String:
		asString, ok := node.(string)
		if !ok {
			return noValue, pojoerrors.ConversionError.Newf(
				"cannot store %T in %s", node, targetType.String(),
			)
		}
		return reflect.ValueOf(asString).Convert(targetType), nil

	case reflect.Bool:
		switch typed := node.(type) {
		case bool:
			return reflect.ValueOf(typed).Convert(targetType), nil
		case string:
			parsed, err := strconv.ParseBool(typed)
			if err != nil {
				return noValue, pojoerrors.ConversionError.New(
					fmt.Sprintf("bad bool %q", typed), nil, err,
				)
			}
			return reflect.ValueOf(parsed).Convert(targetType), nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		asInt, err := nodeInt64(node)
		if err != nil {
			return noValue, err
		}
		return reflect.ValueOf(asInt).Convert(targetType), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		asUint, err := nodeUint64(node)
		if err != nil {
			return noValue, err
		}
		return reflect.ValueOf(asUint).Convert(targetType), nil

	case reflect.Float32, reflect.Float64:
		asFloat, err := nodeFloat64(node)
		if err != nil {
			return noValue, err
		}
		return reflect.ValueOf(asFloat).Convert(targetType), nil
	}

	return noValue, pojoerrors.ConversionError.Newf(
		"cannot store %T in %s", node, targetType.String(),
	)
}

func (walker *Walker) assembleContainer(
	ctx *Context, node interface{}, targetType reflect.Type,
) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.Map:
		orderedMap, ok := node.(*pojotypes.OrderedMap)
		if !ok {
			return noValue, pojoerrors.TypeResolutionError.Newf(
				"expected map-shaped data for %s, got %T",
				targetType.String(), node,
			)
		}

		assembled := reflect.MakeMapWithSize(targetType, orderedMap.Len())
		for _, key := range orderedMap.Keys() {
			keyValue, err := walker.assembleScalar(key, targetType.Key())
			if err != nil {
				return noValue, err
			}

			entry, _ := orderedMap.Get(key)
			entryValue, err := walker.assembleValue(
				ctx, entry, targetType.Elem(), 0,
			)
			if err != nil {
				return noValue, err
			}
			if !entryValue.IsValid() {
				// Null entries stay present with their zero value.
				entryValue = reflect.Zero(targetType.Elem())
			}
			assembled.SetMapIndex(keyValue, entryValue)
		}
		return assembled, nil

	case reflect.Slice, reflect.Array:
		sequence, ok := node.([]interface{})
		if !ok {
			return noValue, pojoerrors.TypeResolutionError.Newf(
				"expected sequence-shaped data for %s, got %T",
				targetType.String(), node,
			)
		}

		var assembled reflect.Value
		if targetType.Kind() == reflect.Slice {
			assembled = reflect.MakeSlice(
				targetType, len(sequence), len(sequence),
			)
		} else {
			if len(sequence) > targetType.Len() {
				return noValue, pojoerrors.ConversionError.Newf(
					"sequence of %d elements overflows %s",
					len(sequence), targetType.String(),
				)
			}
			assembled = reflect.New(targetType).Elem()
		}

		for i, element := range sequence {
			elementValue, err := walker.assembleValue(
				ctx, element, targetType.Elem(), 0,
			)
			if err != nil {
				return noValue, err
			}
			if elementValue.IsValid() {
				assembled.Index(i).Set(elementValue)
			}
		}
		return assembled, nil
	}

	return noValue, pojoerrors.TypeResolutionError.Newf(
		"%s is not a container type", targetType.String(),
	)
}

func (walker *Walker) assembleBean(
	ctx *Context, node interface{}, targetType reflect.Type,
) (reflect.Value, error) {
	orderedMap, ok := node.(*pojotypes.OrderedMap)
	if !ok {
		return noValue, pojoerrors.TypeResolutionError.Newf(
			"expected map-shaped data for bean %s, got %T",
			targetType.String(), node,
		)
	}

	// A type hint may narrow the target to a registered concrete type.
	if hinted, err := walker.resolveHint(orderedMap, targetType); err != nil {
		return noValue, err
	} else if hinted != nil {
		targetType = hinted
	}

	meta := walker.categorizer.BeanMeta(targetType)
	instance := reflect.New(targetType)

	for _, key := range orderedMap.Keys() {
		if key == TypeHintKey {
			continue
		}
		property := meta.Property(key)
		if property == nil {
			// Unknown wire properties are skipped.
			continue
		}

		entry, _ := orderedMap.Get(key)
		entryValue, err := walker.assembleValue(ctx, entry, property.Type, 0)
		if err != nil {
			if walker.Lenient && isConversionFailure(err) {
				continue
			}
			return noValue, err
		}
		if !entryValue.IsValid() {
			continue
		}

		if err := property.Set(instance, entryValue); err != nil {
			return noValue, err
		}
	}

	return instance.Elem(), nil
}

func (walker *Walker) assembleVirtual(
	ctx *Context, node interface{}, targetType reflect.Type,
) (reflect.Value, error) {
	orderedMap, ok := node.(*pojotypes.OrderedMap)
	if !ok {
		return noValue, pojoerrors.TypeResolutionError.Newf(
			"expected map-shaped data for interface %s, got %T",
			targetType.String(), node,
		)
	}

	// With a resolvable hint the interface gets a real implementation.
	if hinted, err := walker.resolveHint(orderedMap, targetType); err != nil {
		return noValue, err
	} else if hinted != nil {
		assembled, err := walker.assembleValue(ctx, node, hinted, 0)
		if err != nil {
			return noValue, err
		}
		return conformValue(assembled, targetType)
	}

	return reflect.ValueOf(
		classify.NewVirtualBean(targetType, orderedMap),
	), nil
}

// Resolves a _type hint against the type dictionary. A hint naming an
// unregistered type is a parse failure, not a silent fallback.
func (walker *Walker) resolveHint(
	orderedMap *pojotypes.OrderedMap, targetType reflect.Type,
) (reflect.Type, error) {
	hint, present := orderedMap.Get(TypeHintKey)
	if !present {
		return nil, nil
	}

	hintName, ok := hint.(string)
	if !ok {
		return nil, pojoerrors.TypeResolutionError.Newf(
			"%s hint must be a string, got %T", TypeHintKey, hint,
		)
	}

	hinted, registered := walker.typeDictionary[hintName]
	if !registered {
		return nil, pojoerrors.TypeResolutionError.Newf(
			"no registered type for hint %q", hintName,
		)
	}
	return hinted, nil
}

func (walker *Walker) fromString(
	targetType reflect.Type, value string,
) (reflect.Value, error) {
	converted, err := convert.FromString(targetType, value)
	if err != nil {
		return noValue, err
	}
	if converted == nil {
		return noValue, nil
	}
	return conformValue(reflect.ValueOf(converted), targetType)
}

// Conforms a produced value to the target type, converting named types and
// checking interface satisfaction.
func conformValue(
	produced reflect.Value, targetType reflect.Type,
) (reflect.Value, error) {
	if !produced.IsValid() {
		return noValue, nil
	}
	if produced.Type() == targetType ||
		produced.Type().AssignableTo(targetType) {
		return produced, nil
	}
	if produced.Type().ConvertibleTo(targetType) {
		return produced.Convert(targetType), nil
	}
	return noValue, pojoerrors.TypeResolutionError.Newf(
		"%s does not satisfy %s",
		produced.Type().String(), targetType.String(),
	)
}

func isConversionFailure(err error) bool {
	pojoError, ok := err.(*pojoerrors.PojoError)
	if !ok {
		return false
	}
	return pojoError.IsType(pojoerrors.ConversionError) ||
		pojoError.IsType(pojoerrors.NotConvertibleError)
}

func nodeInt64(node interface{}) (int64, error) {
	switch typed := node.(type) {
	case int64:
		return typed, nil
	case int:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case uint64:
		if typed > math.MaxInt64 {
			return 0, pojoerrors.ConversionError.Newf(
				"%d overflows signed integer", typed,
			)
		}
		return int64(typed), nil
	case float64:
		return wholeInt64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			// Some formats hand back integral floats.
			asFloat, floatErr := typed.Float64()
			if floatErr != nil {
				return 0, pojoerrors.ConversionError.New(
					fmt.Sprintf("bad integer %q", typed.String()), nil, err,
				)
			}
			return wholeInt64(asFloat)
		}
		return parsed, nil
	case string:
		parsed, err := strconv.ParseInt(typed, 10, 64)
		if err != nil {
			return 0, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad integer %q", typed), nil, err,
			)
		}
		return parsed, nil
	}
	return 0, pojoerrors.ConversionError.Newf(
		"cannot read %T as integer", node,
	)
}

// Fractional values abort instead of truncating.
func wholeInt64(value float64) (int64, error) {
	if value != math.Trunc(value) {
		return 0, pojoerrors.ConversionError.Newf(
			"%v is not a whole number", value,
		)
	}
	return int64(value), nil
}

func nodeUint64(node interface{}) (uint64, error) {
	switch typed := node.(type) {
	case uint64:
		return typed, nil
	case int64:
		return signedToUint64(typed)
	case int:
		return signedToUint64(int64(typed))
	case int32:
		return signedToUint64(int64(typed))
	case float64:
		return wholeUint64(typed)
	case json.Number:
		// ParseUint first so values past MaxInt64 keep full precision.
		parsed, err := strconv.ParseUint(typed.String(), 10, 64)
		if err != nil {
			asFloat, floatErr := typed.Float64()
			if floatErr != nil {
				return 0, pojoerrors.ConversionError.New(
					fmt.Sprintf("bad unsigned integer %q", typed.String()),
					nil, err,
				)
			}
			return wholeUint64(asFloat)
		}
		return parsed, nil
	case string:
		parsed, err := strconv.ParseUint(typed, 10, 64)
		if err != nil {
			return 0, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad unsigned integer %q", typed), nil, err,
			)
		}
		return parsed, nil
	}
	return 0, pojoerrors.ConversionError.Newf(
		"cannot read %T as unsigned integer", node,
	)
}

func signedToUint64(value int64) (uint64, error) {
	if value < 0 {
		return 0, pojoerrors.ConversionError.Newf(
			"%d cannot be stored unsigned", value,
		)
	}
	return uint64(value), nil
}

func wholeUint64(value float64) (uint64, error) {
	if value < 0 {
		return 0, pojoerrors.ConversionError.Newf(
			"%v cannot be stored unsigned", value,
		)
	}
	if value != math.Trunc(value) {
		return 0, pojoerrors.ConversionError.Newf(
			"%v is not a whole number", value,
		)
	}
	return uint64(value), nil
}

func nodeFloat64(node interface{}) (float64, error) {
	switch typed := node.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad number %q", typed.String()), nil, err,
			)
		}
		return parsed, nil
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return 0, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad number %q", typed), nil, err,
			)
		}
		return parsed, nil
	}
	return 0, pojoerrors.ConversionError.Newf(
		"cannot read %T as number", node,
	)
}

// String form of a scalar node for string-conversion targets.
func scalarString(node interface{}) string {
	if asString, ok := node.(string); ok {
		return asString
	}
	return fmt.Sprint(node)
}
