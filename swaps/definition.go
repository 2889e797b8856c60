// Package swaps implements registered two-way and one-way conversions between
// source types and intermediate, more easily serializable types.
package swaps

import (
	"reflect"

	"github.com/illuscio-dev/pojotools-go/mediatype"
)

// Session carries the per-walk state a swap may branch on. Conditional swaps
// see the negotiated media type only; no other request state is exposed.
type Session struct {
	// The media type negotiated for the current serialize / parse call.
	MediaType mediatype.MediaType
}

// ForwardFunc converts a source value into its intermediate representation
// for output.
type ForwardFunc func(session *Session, value interface{}) (interface{}, error)

// InverseFunc reconstructs the source value from its intermediate
// representation on input.
type InverseFunc func(
	session *Session, intermediate interface{},
) (interface{}, error)

/*
Definition associates a source type with an intermediate target type and the
conversion functions between them.

A nil Inverse makes the definition one-way: values can be serialized but not
parsed back. An empty MediaTypes pattern makes the definition unconditional;
otherwise it only applies when the session's negotiated media type matches the
pattern (see mediatype.MediaType.Matches).
*/
type Definition struct {
	// The type this definition applies to. If Source is an interface type the
	// definition applies to any value implementing it.
	Source reflect.Type

	// The intermediate type Forward produces. Informational; the engine
	// re-categorizes swap results fresh rather than trusting this field.
	Target reflect.Type

	// Converts a source value to the intermediate representation.
	Forward ForwardFunc

	// Converts the intermediate representation back to a source value. Nil
	// for one-way definitions.
	Inverse InverseFunc

	// Media type pattern limiting when this definition applies. Empty means
	// unconditional.
	MediaTypes string

	// Registration sequence assigned by the registry. Tiebreak for
	// conditional definitions of equal pattern specificity.
	seq int
}

// TwoWay reports whether the definition has an inverse.
func (def *Definition) TwoWay() bool {
	return def.Inverse != nil
}

// Conditional reports whether the definition carries a media type predicate.
func (def *Definition) Conditional() bool {
	return def.MediaTypes != ""
}

// Applies reports whether the definition applies for the given media type.
func (def *Definition) Applies(mediaType mediatype.MediaType) bool {
	return mediaType.Matches(def.MediaTypes)
}
