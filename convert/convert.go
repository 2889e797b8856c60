/*
Package convert resolves to-string and from-string conversions for opaque
types that carry their own string form: stringer-style values on the way out,
factory-method-bearing types on the way in.

FromString's method search order is fixed and significant; see
FactoryMethodNames.
*/
package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/illuscio-dev/pojotools-go/pojoerrors"
)

/*
FactoryMethodNames is the ordered list of method names FromString probes for
on a target type's pointer method set. Order is significant: the first name
with a usable signature is chosen, and later names are never consulted —
even when the chosen method's invocation fails.

A usable signature takes exactly one string argument and returns one of:

	func (t *T) Name(s string) error                 // populates t in place
	func (t  T) Name(s string) (T, error)            // returns the value
	func (t  T) Name(s string) T                     // returns the value
*/
var FactoryMethodNames = []string{
	"Create",
	"FromString",
	"FromValue",
	"ValueOf",
	"Parse",
	"ParseString",
	"ForName",
	"ForString",
}

var (
	locationType      = reflect.TypeOf((*time.Location)(nil))
	languageTagType   = reflect.TypeOf(language.Tag{})
	textUnmarshaler   = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	stringerInterface = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textMarshaler     = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorInterface    = reflect.TypeOf((*error)(nil)).Elem()
)

/*
ToString renders a value's string form: fmt.Stringer if implemented, then
encoding.TextMarshaler, then fmt.Sprint.

Time zone values (*time.Location) always render as their canonical zone
identifier ("America/New_York"), never any localized or offset form.
*/
func ToString(value interface{}) string {
	if value == nil {
		return ""
	}

	if location, ok := value.(*time.Location); ok {
		return location.String()
	}

	switch typed := value.(type) {
	case fmt.Stringer:
		return typed.String()
	case encoding.TextMarshaler:
		text, err := typed.MarshalText()
		if err == nil {
			return string(text)
		}
	}

	return fmt.Sprint(value)
}

/*
FromString reconstructs a value of targetType from its string form.

Special-cased targets are checked before the generic method search:

• language.Tag: separator characters are normalized ('_' → '-') before
delegating to language.Parse.

• *time.Location: resolved through time.LoadLocation.

• bool targets: a blank string or the literal "null" yields nil (absent)
rather than an error.

Then encoding.TextUnmarshaler, then the FactoryMethodNames search, then a
direct string conversion for string-kind named types.

A target with no usable conversion fails with NotConvertibleError; a chosen
conversion whose invocation fails propagates ConversionError wrapping the
cause.
*/
func FromString(targetType reflect.Type, value string) (interface{}, error) {
	if targetType == nil {
		return nil, pojoerrors.NotConvertibleError.Newf(
			"no target type for string %q", value,
		)
	}

	// Special cases come before the generic ordered search.
	switch targetType {
	case languageTagType:
		normalized := strings.ReplaceAll(value, "_", "-")
		tag, err := language.Parse(normalized)
		if err != nil {
			return nil, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad language tag %q", value), nil, err,
			)
		}
		return tag, nil

	case locationType:
		location, err := time.LoadLocation(value)
		if err != nil {
			return nil, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad time zone %q", value), nil, err,
			)
		}
		return location, nil
	}

	if targetType.Kind() == reflect.Bool {
		if value == "" || value == "null" {
			return nil, nil
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, pojoerrors.ConversionError.New(
				fmt.Sprintf("bad bool %q", value), nil, err,
			)
		}
		return reflect.ValueOf(parsed).Convert(targetType).Interface(), nil
	}

	pointerType := reflect.PtrTo(targetType)

	if pointerType.Implements(textUnmarshaler) {
		receiver := reflect.New(targetType)
		err := receiver.Interface().(encoding.TextUnmarshaler).
			UnmarshalText([]byte(value))
		if err != nil {
			return nil, pojoerrors.ConversionError.New(
				fmt.Sprintf("UnmarshalText of %q failed", value), nil, err,
			)
		}
		return receiver.Elem().Interface(), nil
	}

	for _, name := range FactoryMethodNames {
		method, ok := pointerType.MethodByName(name)
		if !ok || !factorySignatureFits(method, targetType) {
			continue
		}
		return invokeFactory(method, targetType, value)
	}

	// The Go analog of a single-string-argument constructor: named types
	// whose underlying kind is string convert directly.
	if targetType.Kind() == reflect.String {
		return reflect.ValueOf(value).Convert(targetType).Interface(), nil
	}

	return nil, pojoerrors.NotConvertibleError.Newf(
		"no string conversion for %s", targetType.String(),
	)
}

// Reports whether a method matches one of the recognized factory shapes.
func factorySignatureFits(method reflect.Method, targetType reflect.Type) bool {
	methodType := method.Func.Type()

	// Receiver plus exactly one string argument.
	if methodType.NumIn() != 2 || methodType.In(1).Kind() != reflect.String {
		return false
	}

	switch methodType.NumOut() {
	case 1:
		out := methodType.Out(0)
		return out == errorInterface || out.AssignableTo(targetType)
	case 2:
		return methodType.Out(0).AssignableTo(targetType) &&
			methodType.Out(1) == errorInterface
	}
	return false
}

func invokeFactory(
	method reflect.Method, targetType reflect.Type, value string,
) (interface{}, error) {
	receiver := reflect.New(targetType)
	results := method.Func.Call(
		[]reflect.Value{receiver, reflect.ValueOf(value)},
	)

	methodType := method.Func.Type()

	var produced reflect.Value
	var failure error

	if methodType.NumOut() == 1 {
		if methodType.Out(0) == errorInterface {
			// In-place population.
			if !results[0].IsNil() {
				failure = results[0].Interface().(error)
			}
			produced = receiver.Elem()
		} else {
			produced = results[0]
		}
	} else {
		produced = results[0]
		if !results[1].IsNil() {
			failure = results[1].Interface().(error)
		}
	}

	if failure != nil {
		return nil, pojoerrors.ConversionError.New(
			fmt.Sprintf(
				"%s(%q) on %s failed",
				method.Name, value, targetType.String(),
			),
			nil,
			failure,
		)
	}

	return produced.Interface(), nil
}

// HasFromString reports whether FromString can convert into targetType
// without attempting the conversion. Used by classification to split
// stringifiable types into two-way and one-way.
func HasFromString(targetType reflect.Type) bool {
	if targetType == nil {
		return false
	}
	if targetType == languageTagType || targetType == locationType {
		return true
	}
	if targetType.Kind() == reflect.Bool || targetType.Kind() == reflect.String {
		return true
	}

	pointerType := reflect.PtrTo(targetType)
	if pointerType.Implements(textUnmarshaler) {
		return true
	}

	for _, name := range FactoryMethodNames {
		method, ok := pointerType.MethodByName(name)
		if ok && factorySignatureFits(method, targetType) {
			return true
		}
	}
	return false
}

// HasToString reports whether a type carries its own string form (as opposed
// to only the fmt.Sprint default every value has).
func HasToString(sourceType reflect.Type) bool {
	if sourceType == nil {
		return false
	}
	return sourceType.Implements(stringerInterface) ||
		sourceType.Implements(textMarshaler) ||
		reflect.PtrTo(sourceType).Implements(stringerInterface) ||
		reflect.PtrTo(sourceType).Implements(textMarshaler)
}
