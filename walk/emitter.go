package walk

import (
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

/*
Emitter is the per-format callback a tree walk drives. The walker guarantees
structural correctness — every EnterMap is matched by an ExitMap, every
EnterSequence by an ExitSequence, MapKey is only called between EnterMap and
ExitMap and is always followed by exactly one value — but lexical encoding
(quoting, escaping, indentation) is entirely the emitter's business.

Any error returned from a callback aborts the walk immediately and propagates
to the walk's caller.
*/
type Emitter interface {
	// A map-shaped node opens. The number of entries is not communicated.
	EnterMap() error

	// The key for the next value inside the open map.
	MapKey(key string) error

	// The current map-shaped node is complete.
	ExitMap() error

	// A sequence-shaped node opens.
	EnterSequence() error

	// The current sequence-shaped node is complete.
	ExitSequence() error

	// A leaf with a resolved primitive value: string, bool, int64, uint64 or
	// float64. Never a container.
	Scalar(value interface{}) error

	// A null leaf.
	Null() error

	// A node already open further up the walk was reached again. Emitted in
	// place of recursing; reference is the revisited value.
	Recursion(reference interface{}) error
}

type treeFrame struct {
	orderedMap *pojotypes.OrderedMap
	sequence   []interface{}
	pendingKey string
	keySet     bool
}

/*
TreeEmitter materializes walk events into a generic tree: *pojotypes.OrderedMap
for maps, []interface{} for sequences, scalars and nil at the leaves. Format
modules that marshal whole documents (JSON, MessagePack, BSON, YAML) walk into
a tree first and hand it to their codec.

Recursion events materialize as null leaves.
*/
type TreeEmitter struct {
	root    interface{}
	rootSet bool
	stack   []*treeFrame
}

// NewTreeEmitter returns an empty tree emitter.
func NewTreeEmitter() *TreeEmitter {
	return &TreeEmitter{}
}

// Tree returns the materialized root after a completed walk.
func (emitter *TreeEmitter) Tree() interface{} {
	return emitter.root
}

func (emitter *TreeEmitter) attach(node interface{}) error {
	if len(emitter.stack) == 0 {
		if emitter.rootSet {
			return xerrors.New("multiple root nodes emitted")
		}
		emitter.root = node
		emitter.rootSet = true
		return nil
	}

	frame := emitter.stack[len(emitter.stack)-1]
	if frame.orderedMap != nil {
		if !frame.keySet {
			return xerrors.New("map value emitted without a key")
		}
		frame.orderedMap.Set(frame.pendingKey, node)
		frame.keySet = false
		return nil
	}

	frame.sequence = append(frame.sequence, node)
	return nil
}

func (emitter *TreeEmitter) EnterMap() error {
	emitter.stack = append(
		emitter.stack, &treeFrame{orderedMap: pojotypes.NewOrderedMap()},
	)
	return nil
}

func (emitter *TreeEmitter) MapKey(key string) error {
	if len(emitter.stack) == 0 {
		return xerrors.New("map key emitted outside a map")
	}
	frame := emitter.stack[len(emitter.stack)-1]
	if frame.orderedMap == nil {
		return xerrors.New("map key emitted inside a sequence")
	}
	frame.pendingKey = key
	frame.keySet = true
	return nil
}

func (emitter *TreeEmitter) ExitMap() error {
	if len(emitter.stack) == 0 {
		return xerrors.New("unbalanced ExitMap")
	}
	frame := emitter.stack[len(emitter.stack)-1]
	if frame.orderedMap == nil {
		return xerrors.New("ExitMap closing a sequence")
	}
	emitter.stack = emitter.stack[:len(emitter.stack)-1]
	return emitter.attach(frame.orderedMap)
}

func (emitter *TreeEmitter) EnterSequence() error {
	emitter.stack = append(
		emitter.stack, &treeFrame{sequence: make([]interface{}, 0)},
	)
	return nil
}

func (emitter *TreeEmitter) ExitSequence() error {
	if len(emitter.stack) == 0 {
		return xerrors.New("unbalanced ExitSequence")
	}
	frame := emitter.stack[len(emitter.stack)-1]
	if frame.orderedMap != nil {
		return xerrors.New("ExitSequence closing a map")
	}
	emitter.stack = emitter.stack[:len(emitter.stack)-1]
	return emitter.attach(frame.sequence)
}

func (emitter *TreeEmitter) Scalar(value interface{}) error {
	return emitter.attach(value)
}

func (emitter *TreeEmitter) Null() error {
	return emitter.attach(nil)
}

func (emitter *TreeEmitter) Recursion(reference interface{}) error {
	return emitter.attach(nil)
}
