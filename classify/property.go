package classify

import (
	"reflect"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/pojoerrors"
)

// PropertyMeta is the capability descriptor for a single bean property. It
// decouples the walk from any particular reflection mechanism: a property is
// just a name plus get / set capabilities computed once per type.
type PropertyMeta struct {
	// Wire name of the property. Struct field name unless overridden by a
	// `pojo:"name"` tag.
	Name string

	// Declared type of the property value.
	Type reflect.Type

	getter func(instance reflect.Value) reflect.Value
	setter func(instance reflect.Value, value reflect.Value) error
}

// Get reads the property from an instance of the owning type.
func (property *PropertyMeta) Get(instance reflect.Value) reflect.Value {
	return property.getter(instance)
}

// Set writes the property on a pointer to an instance of the owning type.
// Fails for read-only properties.
func (property *PropertyMeta) Set(
	instance reflect.Value, value reflect.Value,
) error {
	if property.setter == nil {
		return xerrors.New("property " + property.Name + " is read-only")
	}
	return property.setter(instance, value)
}

// CanSet reports whether the property has a setter.
func (property *PropertyMeta) CanSet() bool {
	return property.setter != nil
}

// BeanMeta is the cached introspection result for a struct type.
type BeanMeta struct {
	// The struct type this meta describes.
	Type reflect.Type

	// Properties in declaration order.
	Properties []*PropertyMeta

	byName map[string]*PropertyMeta

	// True when every property is settable, making the bean reconstructable.
	settable bool
}

// Property returns the named property, or nil.
func (meta *BeanMeta) Property(name string) *PropertyMeta {
	return meta.byName[name]
}

// Settable reports whether every property of the bean can be written.
func (meta *BeanMeta) Settable() bool {
	return meta.settable
}

// Method names that look like getters but are string / marshalling
// conventions, never bean properties.
var nonPropertyMethods = map[string]bool{
	"String":      true,
	"GoString":    true,
	"Error":       true,
	"MarshalText": true,
	"MarshalJSON": true,
	"MarshalYAML": true,
	"MarshalBSON": true,
}

// Computes the BeanMeta for a struct type. Exported fields become settable
// properties; a struct with no exported fields falls back to getter-method
// discovery (no-argument exported methods with a single non-error return),
// producing a read-only bean.
func introspectBean(structType reflect.Type) *BeanMeta {
	meta := &BeanMeta{
		Type:     structType,
		byName:   make(map[string]*PropertyMeta),
		settable: true,
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.PkgPath != "" {
			// Unexported.
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("pojo"); ok {
			if tag == "-" {
				continue
			}
			name = strings.Split(tag, ",")[0]
		}

		fieldIndex := field.Index
		property := &PropertyMeta{
			Name: name,
			Type: field.Type,
			getter: func(instance reflect.Value) reflect.Value {
				return instance.FieldByIndex(fieldIndex)
			},
			setter: func(instance reflect.Value, value reflect.Value) error {
				target := reflect.Indirect(instance).FieldByIndex(fieldIndex)
				if !target.CanSet() {
					return xerrors.New("field " + name + " is not settable")
				}
				if !value.Type().AssignableTo(target.Type()) {
					return pojoerrors.TypeResolutionError.Newf(
						"%s cannot be stored in field %s (%s)",
						value.Type().String(), name, target.Type().String(),
					)
				}
				target.Set(value)
				return nil
			},
		}

		meta.Properties = append(meta.Properties, property)
		meta.byName[name] = property
	}

	if len(meta.Properties) > 0 {
		return meta
	}

	// Getter-method discovery for types that keep their state unexported.
	for i := 0; i < structType.NumMethod(); i++ {
		method := structType.Method(i)
		if nonPropertyMethods[method.Name] {
			continue
		}

		methodType := method.Func.Type()
		if methodType.NumIn() != 1 || methodType.NumOut() != 1 {
			continue
		}
		if methodType.Out(0) == errorType {
			continue
		}

		methodIndex := method.Index
		property := &PropertyMeta{
			Name: method.Name,
			Type: methodType.Out(0),
			getter: func(instance reflect.Value) reflect.Value {
				return instance.Method(methodIndex).Call(nil)[0]
			},
		}

		meta.Properties = append(meta.Properties, property)
		meta.byName[method.Name] = property
	}

	meta.settable = false
	return meta
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
