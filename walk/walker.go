/*
Package walk implements the recursion-safe tree walk at the center of the
engine: category-dispatched traversal of arbitrary object graphs on
serialize, and assembly of generic intermediate trees into target-typed
values on parse.
*/
package walk

import (
	"bytes"
	"io"
	"reflect"
	"sort"
	"strconv"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/classify"
	"github.com/illuscio-dev/pojotools-go/convert"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojoerrors"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
	"github.com/illuscio-dev/pojotools-go/swaps"
)

/*
Walker drives tree walks. A single Walker serves many concurrent walks: all
per-walk mutable state lives in a Context created at walk start and discarded
at walk end.

DetectRecursion is off by default. With it off, serializing an actually
cyclic graph does not terminate; this is a documented limitation, not a bug —
detection costs an identity-set operation per container node, so callers
walking known-tree-shaped data skip it.
*/
type Walker struct {
	categorizer *classify.Categorizer
	executor    *swaps.Executor

	// DetectRecursion enables cycle detection on serialize walks.
	DetectRecursion bool

	// Lenient leaves a field at its zero value and continues when a string
	// conversion fails during assembly, instead of aborting the walk.
	Lenient bool

	typeDictionary map[string]reflect.Type
}

// NewWalker returns a walker dispatching through categorizer and executor.
func NewWalker(
	categorizer *classify.Categorizer, executor *swaps.Executor,
) *Walker {
	return &Walker{
		categorizer:    categorizer,
		executor:       executor,
		typeDictionary: make(map[string]reflect.Type),
	}
}

// Categorizer returns the walker's categorizer.
func (walker *Walker) Categorizer() *classify.Categorizer {
	return walker.categorizer
}

// Executor returns the walker's swap executor.
func (walker *Walker) Executor() *swaps.Executor {
	return walker.executor
}

// RegisterType adds a name to the type dictionary consulted when parsed data
// carries a "_type" hint. Hints never resolve outside the dictionary.
func (walker *Walker) RegisterType(name string, target reflect.Type) {
	walker.typeDictionary[name] = target
}

/*
Context is the per-walk mutable state: the open-node identity set for cycle
detection, the swap session carrying the negotiated media type, and the
current depth. Owned exclusively by one walk; never shared.
*/
type Context struct {
	Session *swaps.Session
	Depth   int

	openNodes map[uintptr]bool
}

func newContext(mediaType mediatype.MediaType) *Context {
	return &Context{
		Session:   &swaps.Session{MediaType: mediaType},
		openNodes: make(map[uintptr]bool),
	}
}

// Walk serializes root through emitter under the given media type.
func (walker *Walker) Walk(
	root interface{}, mediaType mediatype.MediaType, emitter Emitter,
) error {
	ctx := newContext(mediaType)
	return walker.walkValue(ctx, root, emitter, 0)
}

func (walker *Walker) walkValue(
	ctx *Context, value interface{}, emitter Emitter, swapDepth int,
) error {
	if value == nil {
		return emitter.Null()
	}

	// Structural intermediates walk as themselves regardless of category.
	switch typed := value.(type) {
	case *pojotypes.OrderedMap:
		return walker.walkOrderedMap(ctx, typed, emitter, identityOf(typed))
	case *classify.VirtualBean:
		return walker.walkOrderedMap(ctx, typed.Properties, emitter, identityOf(typed))
	}

	reflected := reflect.ValueOf(value)

	// Remember the outermost reference identity before dereferencing; cycle
	// detection keys on it.
	identity, hasIdentity := valueIdentity(reflected)

	for reflected.Kind() == reflect.Ptr || reflected.Kind() == reflect.Interface {
		if reflected.IsNil() {
			return emitter.Null()
		}
		reflected = reflected.Elem()
		if !hasIdentity {
			identity, hasIdentity = valueIdentity(reflected)
		}
	}

	category := walker.categorizer.Categorize(
		reflected.Type(), ctx.Session.MediaType,
	)

	switch category {
	case classify.SwappedTwoWay, classify.SwappedOneWay:
		if swapDepth >= swaps.MaxSwapDepth {
			return pojoerrors.SwapLoopError.Newf(
				"swap chain exceeded depth %d at %s",
				swaps.MaxSwapDepth, reflected.Type().String(),
			)
		}
		intermediate, _, err := walker.executor.Forward(
			ctx.Session, reflected.Interface(),
		)
		if err != nil {
			return err
		}
		// Swap results are categorized fresh.
		return walker.walkValue(ctx, intermediate, emitter, swapDepth+1)

	case classify.Primitive:
		return emitter.Scalar(normalizeScalar(reflected))

	case classify.StreamLike:
		return walker.walkStream(reflected, emitter)

	case classify.CollectionStandard, classify.CollectionNonstandard:
		return walker.walkContainer(ctx, reflected, emitter, identity, hasIdentity)

	case classify.BeanStandard, classify.BeanNonstandard, classify.BeanReadonly:
		return walker.walkBean(ctx, reflected, emitter, identity, hasIdentity)

	default:
		// Stringifiable and opaque values leave as their string form.
		return emitter.Scalar(convert.ToString(reflected.Interface()))
	}
}

// Enter / exit discipline around a structural node. Returns handled=true when
// the node was a detected recursion and has already been emitted.
func (walker *Walker) enterNode(
	ctx *Context,
	reflected reflect.Value,
	emitter Emitter,
	identity uintptr,
	hasIdentity bool,
) (handled bool, err error) {
	if !walker.DetectRecursion || !hasIdentity {
		ctx.Depth++
		return false, nil
	}

	if ctx.openNodes[identity] {
		return true, emitter.Recursion(reflected.Interface())
	}

	ctx.openNodes[identity] = true
	ctx.Depth++
	return false, nil
}

func (walker *Walker) exitNode(
	ctx *Context, identity uintptr, hasIdentity bool,
) {
	ctx.Depth--
	if walker.DetectRecursion && hasIdentity {
		// Popped on exit, not kept: the same node reached through a sibling
		// branch is walked again independently.
		delete(ctx.openNodes, identity)
	}
}

func (walker *Walker) walkContainer(
	ctx *Context,
	reflected reflect.Value,
	emitter Emitter,
	identity uintptr,
	hasIdentity bool,
) error {
	handled, err := walker.enterNode(ctx, reflected, emitter, identity, hasIdentity)
	if handled || err != nil {
		return err
	}
	defer walker.exitNode(ctx, identity, hasIdentity)

	if reflected.Kind() == reflect.Map {
		if err := emitter.EnterMap(); err != nil {
			return err
		}

		// Go maps carry no insertion order; emit in sorted key order so
		// output is deterministic. OrderedMap carries real insertion order
		// and walks through walkOrderedMap instead.
		keys := reflected.MapKeys()
		keyStrings := make([]string, len(keys))
		keyValues := make(map[string]reflect.Value, len(keys))
		for i, key := range keys {
			keyString := scalarKeyString(key)
			keyStrings[i] = keyString
			keyValues[keyString] = key
		}
		sort.Strings(keyStrings)

		for _, keyString := range keyStrings {
			if err := emitter.MapKey(keyString); err != nil {
				return err
			}
			entry := reflected.MapIndex(keyValues[keyString])
			if err := walker.walkEntry(ctx, entry, emitter); err != nil {
				return err
			}
		}
		return emitter.ExitMap()
	}

	if err := emitter.EnterSequence(); err != nil {
		return err
	}
	for i := 0; i < reflected.Len(); i++ {
		if err := walker.walkEntry(ctx, reflected.Index(i), emitter); err != nil {
			return err
		}
	}
	return emitter.ExitSequence()
}

func (walker *Walker) walkBean(
	ctx *Context,
	reflected reflect.Value,
	emitter Emitter,
	identity uintptr,
	hasIdentity bool,
) error {
	handled, err := walker.enterNode(ctx, reflected, emitter, identity, hasIdentity)
	if handled || err != nil {
		return err
	}
	defer walker.exitNode(ctx, identity, hasIdentity)

	meta := walker.categorizer.BeanMeta(reflected.Type())

	if err := emitter.EnterMap(); err != nil {
		return err
	}
	for _, property := range meta.Properties {
		if err := emitter.MapKey(property.Name); err != nil {
			return err
		}
		if err := walker.walkEntry(ctx, property.Get(reflected), emitter); err != nil {
			return err
		}
	}
	return emitter.ExitMap()
}

func (walker *Walker) walkOrderedMap(
	ctx *Context,
	orderedMap *pojotypes.OrderedMap,
	emitter Emitter,
	identity uintptr,
) error {
	handled, err := walker.enterNode(
		ctx, reflect.ValueOf(orderedMap), emitter, identity, true,
	)
	if handled || err != nil {
		return err
	}
	defer walker.exitNode(ctx, identity, true)

	if err := emitter.EnterMap(); err != nil {
		return err
	}
	for _, key := range orderedMap.Keys() {
		if err := emitter.MapKey(key); err != nil {
			return err
		}
		entry, _ := orderedMap.Get(key)
		if err := walker.walkValue(ctx, entry, emitter, 0); err != nil {
			return err
		}
	}
	return emitter.ExitMap()
}

// Bridges a reflect.Value entry back into interface{} traversal, mapping
// nil-able kinds to Null.
func (walker *Walker) walkEntry(
	ctx *Context, entry reflect.Value, emitter Emitter,
) error {
	switch entry.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if entry.IsNil() {
			return emitter.Null()
		}
	}
	return walker.walkValue(ctx, entry.Interface(), emitter, 0)
}

func (walker *Walker) walkStream(
	reflected reflect.Value, emitter Emitter,
) error {
	var reader io.Reader
	if asReader, ok := reflected.Interface().(io.Reader); ok {
		reader = asReader
	} else if reflected.CanAddr() {
		reader, _ = reflected.Addr().Interface().(io.Reader)
	}
	if reader == nil {
		return xerrors.Errorf(
			"%s classified stream-like but is not an io.Reader",
			reflected.Type().String(),
		)
	}

	drained := bytes.Buffer{}
	if _, err := drained.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error draining stream: %w", err)
	}
	return emitter.Scalar(drained.String())
}

// Identity of a reference value for the open-node set. Only pointer-shaped
// kinds can reach themselves; value-typed structs cannot self-reference and
// carry no identity.
func valueIdentity(reflected reflect.Value) (uintptr, bool) {
	switch reflected.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if !reflected.IsNil() {
			return reflected.Pointer(), true
		}
	}
	return 0, false
}

func identityOf(pointer interface{}) uintptr {
	return reflect.ValueOf(pointer).Pointer()
}

// Collapses named scalar types onto their predeclared form for emitters.
func normalizeScalar(reflected reflect.Value) interface{} {
	switch reflected.Kind() {
	case reflect.String:
		return reflected.String()
	case reflect.Bool:
		return reflected.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflected.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return reflected.Uint()
	case reflect.Float32, reflect.Float64:
		return reflected.Float()
	}
	return reflected.Interface()
}

// String form of a map key for emitters.
func scalarKeyString(key reflect.Value) string {
	switch key.Kind() {
	case reflect.String:
		return key.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return strconv.FormatUint(key.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(key.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(key.Float(), 'g', -1, 64)
	}
	return convert.ToString(key.Interface())
}
