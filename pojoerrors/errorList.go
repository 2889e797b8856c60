package pojoerrors

// Base Error. Used when a generic error is surfaced by the engine.
var APIError = NewPojoErrorType(
	"APIError",
	1000,
	502,
)

// No category or target type could be determined for a value during parse.
// Fatal for that subtree; surfaces as a client error.
var TypeResolutionError = NewPojoErrorType(
	"TypeResolutionError",
	1001,
	400,
)

// A forward-swap chain exceeded the depth bound. Indicates a configuration
// bug, not a client error.
var SwapLoopError = NewPojoErrorType(
	"SwapLoopError",
	1002,
	500,
)

// Attempted to parse into a type whose swap definition has no inverse.
var UnswapError = NewPojoErrorType(
	"UnswapError",
	1003,
	400,
)

// No string conversion exists for the target type.
var NotConvertibleError = NewPojoErrorType(
	"NotConvertibleError",
	1004,
	400,
)

// A string conversion existed but its invocation failed. Wraps the cause.
var ConversionError = NewPojoErrorType(
	"ConversionError",
	1005,
	400,
)

// No serializer / parser is registered for the requested media type.
var MediaTypeError = NewPojoErrorType(
	"MediaTypeError",
	1006,
	415,
)

// List of default PojoError definitions.
var ErrorList = [7]*PojoErrorType{
	APIError,
	TypeResolutionError,
	SwapLoopError,
	UnswapError,
	NotConvertibleError,
	ConversionError,
	MediaTypeError,
}

// Used to make ErrorTypeCodeIndex.
func makeDefaultErrorCodeIndex() map[int]*PojoErrorType {
	index := make(map[int]*PojoErrorType)
	for _, errorType := range ErrorList {
		index[errorType.apiCode] = errorType
	}
	return index
}

// APICode:*PojoErrorType indexing of default errors.
var ErrorTypeCodeIndex = makeDefaultErrorCodeIndex()
