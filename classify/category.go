// Package classify assigns runtime and declared types to the canonical POJO
// categories that drive serialization dispatch.
package classify

// Category is the structural classification of a POJO type. The category
// decides how the tree walk visits a value and whether the value can be
// reconstructed on parse.
type Category int

const (
	// Scalar values: predeclared strings, numbers and booleans, plus named
	// scalar types with no richer classification.
	Primitive Category = iota

	// Maps, slices and arrays whose element (and key) types all classify
	// into parsable categories.
	CollectionStandard

	// Containers holding at least one serialize-only element type.
	CollectionNonstandard

	// Structs whose exported properties are all settable and parsable.
	BeanStandard

	// Structs with at least one serialize-only property type.
	BeanNonstandard

	// Interface-declared bean targets backed by a property map rather than a
	// concrete implementation.
	BeanVirtual

	// Structs exposing their properties through getter methods only.
	BeanReadonly

	// Types with an applicable swap definition carrying an inverse.
	SwappedTwoWay

	// Types with an applicable swap definition without an inverse.
	SwappedOneWay

	// Byte / character stream types (io.Reader implementers). Drained into a
	// scalar on serialize; not reconstructable.
	StreamLike

	// Types with both a to-string conversion and a recognized from-string
	// inverse.
	StringifiableTwoWay

	// Types with a to-string conversion only.
	StringifiableOneWay

	// Everything else. Serializable through its default string form only.
	Opaque
)

var categoryNames = map[Category]string{
	Primitive:             "PRIMITIVE",
	CollectionStandard:    "COLLECTION_STANDARD",
	CollectionNonstandard: "COLLECTION_NONSTANDARD",
	BeanStandard:          "BEAN_STANDARD",
	BeanNonstandard:       "BEAN_NONSTANDARD",
	BeanVirtual:           "BEAN_VIRTUAL",
	BeanReadonly:          "BEAN_READONLY",
	SwappedTwoWay:         "SWAPPED_TWOWAY",
	SwappedOneWay:         "SWAPPED_ONEWAY",
	StreamLike:            "STREAM_LIKE",
	StringifiableTwoWay:   "STRINGIFIABLE_TWOWAY",
	StringifiableOneWay:   "STRINGIFIABLE_ONEWAY",
	Opaque:                "OPAQUE",
}

func (category Category) String() string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "UNKNOWN_CATEGORY"
}

// CanSerialize reports whether values of this category have a wire
// representation. True for every category.
func (category Category) CanSerialize() bool {
	return true
}

// CanParse reports whether values of this category can be reconstructed from
// their wire representation.
func (category Category) CanParse() bool {
	switch category {
	case Opaque, StreamLike, SwappedOneWay, StringifiableOneWay,
		BeanNonstandard, BeanReadonly, CollectionNonstandard:
		return false
	}
	return true
}
