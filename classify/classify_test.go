package classify_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/pojotools-go/classify"
	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/swaps"
)

type person struct {
	First string
	Last  string
}

type taggedPerson struct {
	First  string `pojo:"first_name"`
	Last   string `pojo:"last_name"`
	Secret string `pojo:"-"`
}

// Read-only bean: no exported fields, getter methods only.
type vaulted struct {
	inner string
}

func (value vaulted) Inner() string {
	return value.inner
}

// Stringifiable both ways.
type pitch struct {
	name string
}

func (value pitch) String() string {
	return value.name
}

func (value pitch) Parse(incoming string) (pitch, error) {
	return pitch{name: incoming}, nil
}

// Stringifiable out only.
type printOnly struct {
	name string
}

func (value printOnly) String() string {
	return value.name
}

// No properties, no string form, no swap.
type featureless struct {
	inner chan int
}

type describable interface {
	Describe() string
}

func newCategorizer() *classify.Categorizer {
	registry := swaps.NewDefaultRegistry()
	registry.Freeze()
	return classify.NewCategorizer(registry)
}

func TestCategorizePrecedence(test *testing.T) {
	categorizer := newCategorizer()

	testCases := []struct {
		name       string
		lookupType reflect.Type
		expected   classify.Category
	}{
		{"int", reflect.TypeOf(0), classify.Primitive},
		{"string", reflect.TypeOf(""), classify.Primitive},
		{"float", reflect.TypeOf(0.5), classify.Primitive},
		{"bool", reflect.TypeOf(true), classify.Primitive},
		{
			"swapped time",
			reflect.TypeOf(time.Time{}),
			classify.SwappedTwoWay,
		},
		{
			// Named int64 kind, but the swap outranks the scalar fallback.
			"swapped duration",
			reflect.TypeOf(time.Duration(0)),
			classify.SwappedTwoWay,
		},
		{
			"stream",
			reflect.TypeOf(&bytes.Buffer{}),
			classify.StreamLike,
		},
		{
			"standard map",
			reflect.TypeOf(map[string]int{}),
			classify.CollectionStandard,
		},
		{
			"standard slice",
			reflect.TypeOf([]string{}),
			classify.CollectionStandard,
		},
		{
			"nonstandard slice",
			reflect.TypeOf([]featureless{}),
			classify.CollectionNonstandard,
		},
		{
			"standard bean",
			reflect.TypeOf(person{}),
			classify.BeanStandard,
		},
		{
			"bean through pointer",
			reflect.TypeOf(&person{}),
			classify.BeanStandard,
		},
		{
			"nonstandard bean",
			reflect.TypeOf(struct{ Stream *bytes.Buffer }{}),
			classify.BeanNonstandard,
		},
		{
			"readonly bean",
			reflect.TypeOf(vaulted{}),
			classify.BeanReadonly,
		},
		{
			"virtual bean",
			reflect.TypeOf((*describable)(nil)).Elem(),
			classify.BeanVirtual,
		},
		{
			"stringifiable two-way",
			reflect.TypeOf(pitch{}),
			classify.StringifiableTwoWay,
		},
		{
			"stringifiable one-way",
			reflect.TypeOf(printOnly{}),
			classify.StringifiableOneWay,
		},
		{
			"opaque",
			reflect.TypeOf(featureless{}),
			classify.Opaque,
		},
	}

	for _, testCase := range testCases {
		test.Run(testCase.name, func(test *testing.T) {
			assert.Equal(
				test,
				testCase.expected,
				categorizer.Categorize(testCase.lookupType, mediatype.JSON),
			)
		})
	}
}

func TestCategorizeValuePrefersRuntimeType(test *testing.T) {
	assert := assert.New(test)
	categorizer := newCategorizer()

	declared := reflect.TypeOf((*describable)(nil)).Elem()

	category := categorizer.CategorizeValue(person{}, declared, mediatype.JSON)
	assert.Equal(classify.BeanStandard, category)

	category = categorizer.CategorizeValue(nil, declared, mediatype.JSON)
	assert.Equal(classify.BeanVirtual, category)
}

func TestCategorizePerMediaType(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewDefaultRegistry()
	registry.MustRegister(&swaps.Definition{
		Source:     reflect.TypeOf(pitch{}),
		Target:     reflect.TypeOf(""),
		MediaTypes: "application/json",
		Forward: func(
			session *swaps.Session, value interface{},
		) (interface{}, error) {
			return value.(pitch).name, nil
		},
	})
	registry.Freeze()
	categorizer := classify.NewCategorizer(registry)

	pitchType := reflect.TypeOf(pitch{})

	assert.Equal(
		classify.SwappedOneWay,
		categorizer.Categorize(pitchType, mediatype.JSON),
	)
	assert.Equal(
		classify.StringifiableTwoWay,
		categorizer.Categorize(pitchType, mediatype.XML),
	)
}

func TestCategorizeSelfReferentialType(test *testing.T) {
	assert := assert.New(test)
	categorizer := newCategorizer()

	type node struct {
		Name string
		Next *node
	}

	assert.Equal(
		classify.BeanStandard,
		categorizer.Categorize(reflect.TypeOf(node{}), mediatype.JSON),
	)
}

func TestBeanMetaFields(test *testing.T) {
	assert := assert.New(test)
	categorizer := newCategorizer()

	meta := categorizer.BeanMeta(reflect.TypeOf(person{}))

	assert.Equal(2, len(meta.Properties))
	assert.Equal("First", meta.Properties[0].Name)
	assert.Equal("Last", meta.Properties[1].Name)
	assert.True(meta.Settable())

	instance := person{First: "Harry", Last: "Potter"}
	assert.Equal(
		"Harry",
		meta.Property("First").Get(reflect.ValueOf(instance)).Interface(),
	)

	receiver := reflect.New(reflect.TypeOf(person{}))
	err := meta.Property("Last").Set(receiver, reflect.ValueOf("Granger"))
	assert.Nil(err)
	assert.Equal("Granger", receiver.Elem().Interface().(person).Last)
}

func TestBeanMetaTags(test *testing.T) {
	assert := assert.New(test)
	categorizer := newCategorizer()

	meta := categorizer.BeanMeta(reflect.TypeOf(taggedPerson{}))

	assert.Equal(2, len(meta.Properties))
	assert.Equal("first_name", meta.Properties[0].Name)
	assert.Equal("last_name", meta.Properties[1].Name)
	assert.Nil(meta.Property("Secret"))
}

func TestBeanMetaGetterFallback(test *testing.T) {
	assert := assert.New(test)
	categorizer := newCategorizer()

	meta := categorizer.BeanMeta(reflect.TypeOf(vaulted{}))

	assert.Equal(1, len(meta.Properties))
	assert.Equal("Inner", meta.Properties[0].Name)
	assert.False(meta.Settable())
	assert.False(meta.Properties[0].CanSet())

	instance := vaulted{inner: "hidden"}
	assert.Equal(
		"hidden",
		meta.Property("Inner").Get(reflect.ValueOf(instance)).Interface(),
	)
}

func TestVirtualBean(test *testing.T) {
	assert := assert.New(test)

	virtual := classify.NewVirtualBean(
		reflect.TypeOf((*describable)(nil)).Elem(), nil,
	)
	assert.NotNil(virtual)
	assert.NotNil(virtual.Properties)
}
