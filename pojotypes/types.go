package pojotypes

// BinData is used to hold raw binary blob information for structs that need to
// support encoding to and from the object media types. The engine's default
// swaps hexify this data for text formats, while binary formats transport it
// as-is.
type BinData []byte
