package walk_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/pojotools-go/classify"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojoerrors"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
	"github.com/illuscio-dev/pojotools-go/swaps"
	"github.com/illuscio-dev/pojotools-go/walk"
)

type person struct {
	First string
	Last  string
	Age   int
}

type node struct {
	Name string
	Next *node
}

type animal interface {
	Sound() string
}

type dog struct {
	Name string
}

func (value dog) Sound() string {
	return "woof"
}

// Pair of types whose swap definitions point at each other, for loop
// detection.
type loopA struct{}
type loopB struct{}

func newWalker() *walk.Walker {
	registry := swaps.NewDefaultRegistry()
	registry.Freeze()
	return walkerFor(registry)
}

func walkerFor(registry *swaps.Registry) *walk.Walker {
	categorizer := classify.NewCategorizer(registry)
	executor := swaps.NewExecutor(registry)
	return walk.NewWalker(categorizer, executor)
}

func walkToTree(
	test *testing.T, walker *walk.Walker, root interface{},
) interface{} {
	emitter := walk.NewTreeEmitter()
	err := walker.Walk(root, mediatype.JSON, emitter)
	if err != nil {
		test.Fatal(err)
	}
	return emitter.Tree()
}

func TestWalkBean(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	tree := walkToTree(
		test, walker, person{First: "Harry", Last: "Potter", Age: 11},
	)

	orderedMap, ok := tree.(*pojotypes.OrderedMap)
	assert.True(ok)
	assert.Equal([]string{"First", "Last", "Age"}, orderedMap.Keys())

	first, _ := orderedMap.Get("First")
	assert.Equal("Harry", first)

	age, _ := orderedMap.Get("Age")
	assert.Equal(int64(11), age)
}

func TestWalkMapSortedKeys(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	tree := walkToTree(
		test, walker, map[string]int{"zulu": 1, "alpha": 2, "mike": 3},
	)

	orderedMap, ok := tree.(*pojotypes.OrderedMap)
	assert.True(ok)
	assert.Equal([]string{"alpha", "mike", "zulu"}, orderedMap.Keys())
}

func TestWalkSequence(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	tree := walkToTree(test, walker, []interface{}{"one", 2, nil, true})

	sequence, ok := tree.([]interface{})
	assert.True(ok)
	assert.Equal([]interface{}{"one", int64(2), nil, true}, sequence)
}

func TestWalkSwappedScalar(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	moment := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	tree := walkToTree(test, walker, moment)

	assert.Equal("2024-06-15T12:30:00Z", tree)
}

func TestWalkStream(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	tree := walkToTree(test, walker, bytes.NewBufferString("streamed"))

	assert.Equal("streamed", tree)
}

func TestWalkNullEntries(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	tree := walkToTree(test, walker, map[string]*person{"nobody": nil})

	orderedMap, ok := tree.(*pojotypes.OrderedMap)
	assert.True(ok)

	entry, present := orderedMap.Get("nobody")
	assert.True(present)
	assert.Nil(entry)
}

func TestWalkRecursionDetection(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()
	walker.DetectRecursion = true

	first := &node{Name: "first"}
	second := &node{Name: "second", Next: first}
	first.Next = second

	tree := walkToTree(test, walker, first)

	orderedMap, ok := tree.(*pojotypes.OrderedMap)
	assert.True(ok)

	name, _ := orderedMap.Get("Name")
	assert.Equal("first", name)

	next, _ := orderedMap.Get("Next")
	innerMap, ok := next.(*pojotypes.OrderedMap)
	assert.True(ok)

	// The cycle back to the first node materializes as null.
	cycled, present := innerMap.Get("Next")
	assert.True(present)
	assert.Nil(cycled)
}

func TestWalkSharedNodeIsNotRecursion(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()
	walker.DetectRecursion = true

	shared := &node{Name: "shared"}
	tree := walkToTree(test, walker, []*node{shared, shared})

	sequence, ok := tree.([]interface{})
	assert.True(ok)
	assert.Equal(2, len(sequence))

	// Both sightings walk fully; only in-stack revisits count as recursion.
	for _, element := range sequence {
		orderedMap, isMap := element.(*pojotypes.OrderedMap)
		assert.True(isMap)
		name, _ := orderedMap.Get("Name")
		assert.Equal("shared", name)
	}
}

func TestWalkSwapLoopFails(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	registry.MustRegister(&swaps.Definition{
		Source: reflect.TypeOf(loopA{}),
		Target: reflect.TypeOf(loopB{}),
		Forward: func(
			session *swaps.Session, value interface{},
		) (interface{}, error) {
			return loopB{}, nil
		},
	})
	registry.MustRegister(&swaps.Definition{
		Source: reflect.TypeOf(loopB{}),
		Target: reflect.TypeOf(loopA{}),
		Forward: func(
			session *swaps.Session, value interface{},
		) (interface{}, error) {
			return loopA{}, nil
		},
	})
	registry.Freeze()

	walker := walkerFor(registry)
	err := walker.Walk(loopA{}, mediatype.JSON, walk.NewTreeEmitter())

	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.SwapLoopError))
}

func TestAssembleBean(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("First", "Harry")
	intermediate.Set("Last", "Potter")
	intermediate.Set("Age", int64(11))
	intermediate.Set("Ignored", "anything")

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(person{}), mediatype.JSON,
	)

	assert.Nil(err)
	assert.Equal(person{First: "Harry", Last: "Potter", Age: 11}, assembled)
}

func TestAssembleNil(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	assembled, err := walker.Assemble(
		nil, reflect.TypeOf(person{}), mediatype.JSON,
	)

	assert.Nil(err)
	assert.Nil(assembled)
}

func TestAssembleSwapped(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	assembled, err := walker.Assemble(
		"2024-06-15T12:30:00Z", reflect.TypeOf(time.Time{}), mediatype.JSON,
	)

	assert.Nil(err)

	moment, ok := assembled.(time.Time)
	assert.True(ok)
	assert.True(
		time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Equal(moment),
	)
}

func TestAssembleContainers(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("alpha", int64(1))
	intermediate.Set("beta", nil)

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(map[string]int{}), mediatype.JSON,
	)
	assert.Nil(err)

	// Null entries stay present at their zero value.
	assert.Equal(map[string]int{"alpha": 1, "beta": 0}, assembled)

	assembled, err = walker.Assemble(
		[]interface{}{"one", "two"}, reflect.TypeOf([]string{}), mediatype.JSON,
	)
	assert.Nil(err)
	assert.Equal([]string{"one", "two"}, assembled)
}

func TestAssemblePointerTarget(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("First", "Harry")

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(&person{}), mediatype.JSON,
	)

	assert.Nil(err)

	pointer, ok := assembled.(*person)
	assert.True(ok)
	assert.Equal("Harry", pointer.First)
}

func TestAssembleTypeHint(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()
	walker.RegisterType("dog", reflect.TypeOf(dog{}))

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set(walk.TypeHintKey, "dog")
	intermediate.Set("Name", "Fang")

	assembled, err := walker.Assemble(
		intermediate,
		reflect.TypeOf((*animal)(nil)).Elem(),
		mediatype.JSON,
	)

	assert.Nil(err)

	asDog, ok := assembled.(dog)
	assert.True(ok)
	assert.Equal("Fang", asDog.Name)
	assert.Equal("woof", asDog.Sound())
}

func TestAssembleUnregisteredHintFails(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set(walk.TypeHintKey, "unregistered")

	assembled, err := walker.Assemble(
		intermediate,
		reflect.TypeOf((*animal)(nil)).Elem(),
		mediatype.JSON,
	)

	assert.Nil(assembled)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.TypeResolutionError))
}

func TestAssembleVirtualBeanWithoutHint(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("Name", "Fang")

	assembled, err := walker.Assemble(
		intermediate,
		reflect.TypeOf((*animal)(nil)).Elem(),
		mediatype.JSON,
	)

	assert.Nil(err)

	virtual, ok := assembled.(*classify.VirtualBean)
	assert.True(ok)

	name, present := virtual.Get("Name")
	assert.True(present)
	assert.Equal("Fang", name)
}

func TestAssembleLenient(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("First", "Harry")
	intermediate.Set("Age", "not-a-number")

	_, err := walker.Assemble(
		intermediate, reflect.TypeOf(person{}), mediatype.JSON,
	)
	assert.NotNil(err)

	walker.Lenient = true
	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(person{}), mediatype.JSON,
	)

	assert.Nil(err)
	assert.Equal(person{First: "Harry", Age: 0}, assembled)
}

func TestTreeEmitterStructuralErrors(test *testing.T) {
	assert := assert.New(test)

	emitter := walk.NewTreeEmitter()
	assert.NotNil(emitter.ExitMap())

	emitter = walk.NewTreeEmitter()
	assert.NotNil(emitter.MapKey("key"))

	emitter = walk.NewTreeEmitter()
	assert.Nil(emitter.EnterMap())
	assert.NotNil(emitter.Scalar("value"))
}

type counter struct {
	N uint64
}

func TestAssembleUnsignedTopOfRange(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("N", json.Number("18446744073709551615"))

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(counter{}), mediatype.JSON,
	)

	assert.Nil(err)
	assert.Equal(counter{N: uint64(math.MaxUint64)}, assembled)
}

func TestAssembleNegativeIntoUnsignedFails(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("N", int64(-1))

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(counter{}), mediatype.JSON,
	)

	assert.Nil(assembled)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.ConversionError))
}

func TestAssembleFractionalIntegerFails(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("First", "Harry")
	intermediate.Set("Age", json.Number("1.5"))

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(person{}), mediatype.JSON,
	)

	assert.Nil(assembled)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.ConversionError))

	// Lenient mode skips the field instead.
	walker.Lenient = true
	assembled, err = walker.Assemble(
		intermediate, reflect.TypeOf(person{}), mediatype.JSON,
	)
	assert.Nil(err)
	assert.Equal(person{First: "Harry", Age: 0}, assembled)
}

type keeper struct {
	Name string
	Pet  animal
}

func TestAssembleInterfaceFieldWithoutHintFails(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	pet := pojotypes.NewOrderedMap()
	pet.Set("Kind", "dragon")

	intermediate := pojotypes.NewOrderedMap()
	intermediate.Set("Name", "Hagrid")
	intermediate.Set("Pet", pet)

	assembled, err := walker.Assemble(
		intermediate, reflect.TypeOf(keeper{}), mediatype.JSON,
	)

	assert.Nil(assembled)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.TypeResolutionError))
}

func TestAssembleArrayOverflowFails(test *testing.T) {
	assert := assert.New(test)
	walker := newWalker()

	assembled, err := walker.Assemble(
		[]interface{}{int64(1), int64(2), int64(3)},
		reflect.TypeOf([2]int{}),
		mediatype.JSON,
	)

	assert.Nil(assembled)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.ConversionError))
}
