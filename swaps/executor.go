package swaps

import (
	"reflect"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/pojoerrors"
)

// MaxSwapDepth caps forward-swap chains. Swap results are re-categorized
// fresh, so a misconfigured registry can swap a value into another swapped
// type indefinitely; past this depth the walk fails with SwapLoopError.
const MaxSwapDepth = 10

// Executor applies swap definitions resolved through a registry.
type Executor struct {
	registry *Registry
}

// NewExecutor returns an executor resolving definitions through registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Registry returns the registry this executor resolves through.
func (executor *Executor) Registry() *Registry {
	return executor.registry
}

/*
Forward applies one swap step to value: the applicable definition for
(value's type, session media type) is resolved and its forward function
invoked. Returns the intermediate value and the definition applied, or
(value, nil, nil) when no definition applies.

Callers recursing on the result are responsible for bounding chains with
MaxSwapDepth.
*/
func (executor *Executor) Forward(
	session *Session, value interface{},
) (interface{}, *Definition, error) {
	if value == nil {
		return nil, nil, nil
	}

	def := executor.registry.Lookup(reflect.TypeOf(value), session.MediaType)
	if def == nil {
		return value, nil, nil
	}

	intermediate, err := def.Forward(session, value)
	if err != nil {
		return nil, def, xerrors.Errorf(
			"forward swap of %s failed: %w", def.Source.String(), err,
		)
	}

	return intermediate, def, nil
}

/*
Backward reconstructs a value of targetType from its intermediate
representation. Fails with UnswapError when the applicable definition is
one-way and with TypeResolutionError when targetType has no applicable
definition at all.
*/
func (executor *Executor) Backward(
	session *Session, intermediate interface{}, targetType reflect.Type,
) (interface{}, error) {
	def := executor.registry.Lookup(targetType, session.MediaType)
	if def == nil {
		return nil, pojoerrors.TypeResolutionError.Newf(
			"no swap definition applies to %s", targetType.String(),
		)
	}

	if def.Inverse == nil {
		return nil, pojoerrors.UnswapError.Newf(
			"swap for %s is one-way, cannot parse", targetType.String(),
		)
	}

	value, err := def.Inverse(session, intermediate)
	if err != nil {
		return nil, xerrors.Errorf(
			"inverse swap of %s failed: %w", targetType.String(), err,
		)
	}

	return value, nil
}
