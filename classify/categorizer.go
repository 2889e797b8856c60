package classify

import (
	"io"
	"reflect"
	"sync"

	"github.com/illuscio-dev/pojotools-go/convert"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/swaps"
)

var readerInterface = reflect.TypeOf((*io.Reader)(nil)).Elem()

type categoryKey struct {
	lookupType reflect.Type
	mediaBase  string
}

/*
Categorizer classifies types into Categories.

Classification is pure and deterministic for a given (type, media type) pair,
so results are cached: the first sighting of a type computes its category
under a lock, every later sighting is a read. Swap definitions are conditional
on media type, which is why the cache key includes it.

Classification order (first match wins):

 1. Pointers are dereferenced; nil values never reach the categorizer (the
    walk emits a distinguished null).
 2. Predeclared scalars → PRIMITIVE.
 3. Applicable swap definition → SWAPPED_TWOWAY / SWAPPED_ONEWAY.
 4. io.Reader implementers → STREAM_LIKE.
 5. Maps, slices, arrays → COLLECTION_STANDARD when every key / element type
    recursively classifies parsable, else COLLECTION_NONSTANDARD.
 6. Structs → BEAN_STANDARD / BEAN_READONLY / BEAN_NONSTANDARD; declared
    interfaces → BEAN_VIRTUAL.
 7. Own to-string conversion → STRINGIFIABLE_TWOWAY when a recognized inverse
    exists, else STRINGIFIABLE_ONEWAY.
 8. Named scalar kinds with no richer classification → PRIMITIVE.
 9. Everything else → OPAQUE.
*/
type Categorizer struct {
	swapRegistry *swaps.Registry

	mu        sync.RWMutex
	cache     map[categoryKey]Category
	beanCache map[reflect.Type]*BeanMeta
}

// NewCategorizer returns a categorizer resolving swaps through swapRegistry.
func NewCategorizer(swapRegistry *swaps.Registry) *Categorizer {
	return &Categorizer{
		swapRegistry: swapRegistry,
		cache:        make(map[categoryKey]Category),
		beanCache:    make(map[reflect.Type]*BeanMeta),
	}
}

// CategorizeValue classifies a runtime value against its declared type: the
// runtime type wins when the value is non-nil, the declared type otherwise.
func (categorizer *Categorizer) CategorizeValue(
	value interface{},
	declaredType reflect.Type,
	mediaType mediatype.MediaType,
) Category {
	if value != nil {
		return categorizer.Categorize(reflect.TypeOf(value), mediaType)
	}
	return categorizer.Categorize(declaredType, mediaType)
}

// Categorize classifies a type for the given media type.
func (categorizer *Categorizer) Categorize(
	lookupType reflect.Type, mediaType mediatype.MediaType,
) Category {
	key := categoryKey{lookupType: lookupType, mediaBase: mediaType.Base()}

	categorizer.mu.RLock()
	category, cached := categorizer.cache[key]
	categorizer.mu.RUnlock()
	if cached {
		return category
	}

	categorizer.mu.Lock()
	defer categorizer.mu.Unlock()

	// Re-check; another goroutine may have populated the entry.
	if category, cached = categorizer.cache[key]; cached {
		return category
	}

	category = categorizer.compute(
		lookupType, mediaType, map[reflect.Type]bool{},
	)
	categorizer.cache[key] = category
	return category
}

// BeanMeta returns the cached introspection result for a struct type,
// computing it on first sighting.
func (categorizer *Categorizer) BeanMeta(structType reflect.Type) *BeanMeta {
	categorizer.mu.RLock()
	meta, cached := categorizer.beanCache[structType]
	categorizer.mu.RUnlock()
	if cached {
		return meta
	}

	categorizer.mu.Lock()
	defer categorizer.mu.Unlock()

	if meta, cached = categorizer.beanCache[structType]; cached {
		return meta
	}

	meta = introspectBean(structType)
	categorizer.beanCache[structType] = meta
	return meta
}

// Recursive classification. visiting guards against type graphs that refer
// back to themselves (type Node struct{ Next *Node }): an in-progress type is
// optimistically reported standard so the cycle does not demote its owner.
func (categorizer *Categorizer) compute(
	lookupType reflect.Type,
	mediaType mediatype.MediaType,
	visiting map[reflect.Type]bool,
) Category {
	if lookupType == nil {
		return Opaque
	}

	for lookupType.Kind() == reflect.Ptr {
		lookupType = lookupType.Elem()
	}

	if visiting[lookupType] {
		return BeanStandard
	}
	visiting[lookupType] = true
	defer delete(visiting, lookupType)

	// 2. Predeclared scalars.
	if isScalarKind(lookupType.Kind()) && lookupType.PkgPath() == "" {
		return Primitive
	}

	// 3. Swaps.
	if def := categorizer.swapRegistry.Lookup(lookupType, mediaType); def != nil {
		if def.TwoWay() {
			return SwappedTwoWay
		}
		return SwappedOneWay
	}

	// 4. Streams.
	if lookupType.Implements(readerInterface) ||
		reflect.PtrTo(lookupType).Implements(readerInterface) {
		return StreamLike
	}

	// 5. Containers.
	switch lookupType.Kind() {
	case reflect.Map:
		keyStandard := categorizer.elementStandard(
			lookupType.Key(), mediaType, visiting,
		)
		valueStandard := categorizer.elementStandard(
			lookupType.Elem(), mediaType, visiting,
		)
		if keyStandard && valueStandard {
			return CollectionStandard
		}
		return CollectionNonstandard

	case reflect.Slice, reflect.Array:
		if categorizer.elementStandard(lookupType.Elem(), mediaType, visiting) {
			return CollectionStandard
		}
		return CollectionNonstandard
	}

	// 6. Beans.
	if lookupType.Kind() == reflect.Interface {
		return BeanVirtual
	}
	if lookupType.Kind() == reflect.Struct {
		meta := introspectBean(lookupType)
		if len(meta.Properties) > 0 {
			return categorizer.beanCategory(meta, mediaType, visiting)
		}
		// Propertyless structs fall through to string conversion.
	}

	// 7. String convertibility.
	if convert.HasToString(lookupType) {
		if convert.HasFromString(lookupType) {
			return StringifiableTwoWay
		}
		return StringifiableOneWay
	}

	// 8. Named scalar kinds serialize as their underlying scalar.
	if isScalarKind(lookupType.Kind()) {
		return Primitive
	}

	return Opaque
}

func (categorizer *Categorizer) beanCategory(
	meta *BeanMeta,
	mediaType mediatype.MediaType,
	visiting map[reflect.Type]bool,
) Category {
	standard := true
	for _, property := range meta.Properties {
		if !categorizer.elementStandard(property.Type, mediaType, visiting) {
			standard = false
			break
		}
	}

	if !standard {
		return BeanNonstandard
	}
	if !meta.Settable() {
		return BeanReadonly
	}
	return BeanStandard
}

// A key / element / property type is standard when it classifies into a
// parsable category. Empty interfaces resolve at runtime and are assumed
// standard.
func (categorizer *Categorizer) elementStandard(
	elementType reflect.Type,
	mediaType mediatype.MediaType,
	visiting map[reflect.Type]bool,
) bool {
	if elementType.Kind() == reflect.Interface && elementType.NumMethod() == 0 {
		return true
	}
	return categorizer.compute(elementType, mediaType, visiting).CanParse()
}

func isScalarKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
