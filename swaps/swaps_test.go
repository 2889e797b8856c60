package swaps_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojoerrors"
	"github.com/illuscio-dev/pojotools-go/swaps"
)

type stamp struct {
	value string
}

type badge struct {
	value string
}

type named interface {
	NamedValue() string
}

func (value badge) NamedValue() string {
	return value.value
}

// Definition producing a fixed marker string, for dispatch assertions.
func markerDef(
	source reflect.Type, marker string, mediaTypes string,
) *swaps.Definition {
	return &swaps.Definition{
		Source:     source,
		Target:     reflect.TypeOf(""),
		MediaTypes: mediaTypes,
		Forward: func(
			session *swaps.Session, value interface{},
		) (interface{}, error) {
			return marker, nil
		},
		Inverse: func(
			session *swaps.Session, intermediate interface{},
		) (interface{}, error) {
			return stamp{value: marker}, nil
		},
	}
}

func TestRegisterAfterFreezeFails(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	assert.False(registry.Frozen())

	registry.Freeze()
	assert.True(registry.Frozen())

	err := registry.Register(markerDef(reflect.TypeOf(stamp{}), "late", ""))
	assert.NotNil(err)
}

func TestFreezeIdempotent(test *testing.T) {
	registry := swaps.NewRegistry()
	registry.Freeze()
	registry.Freeze()
}

func TestRegisterValidation(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()

	err := registry.Register(&swaps.Definition{})
	assert.NotNil(err)

	err = registry.Register(&swaps.Definition{Source: reflect.TypeOf(stamp{})})
	assert.NotNil(err)
}

func TestConditionalBeforeUnconditional(test *testing.T) {
	assert := assert.New(test)

	stampType := reflect.TypeOf(stamp{})

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(stampType, "default", ""))
	registry.MustRegister(markerDef(stampType, "json-only", "application/json"))
	registry.Freeze()

	session := &swaps.Session{MediaType: mediatype.JSON}
	executor := swaps.NewExecutor(registry)

	intermediate, def, err := executor.Forward(session, stamp{})
	assert.Nil(err)
	assert.NotNil(def)
	assert.Equal("json-only", intermediate)

	// A media type the predicate does not match falls to the unconditional
	// definition.
	session = &swaps.Session{MediaType: mediatype.YAML}
	intermediate, def, err = executor.Forward(session, stamp{})
	assert.Nil(err)
	assert.NotNil(def)
	assert.Equal("default", intermediate)
}

func TestMostSpecificPredicateFirst(test *testing.T) {
	assert := assert.New(test)

	stampType := reflect.TypeOf(stamp{})

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(stampType, "wildcard", "application/*"))
	registry.MustRegister(markerDef(stampType, "literal", "application/json"))
	registry.Freeze()

	executor := swaps.NewExecutor(registry)

	intermediate, _, err := executor.Forward(
		&swaps.Session{MediaType: mediatype.JSON}, stamp{},
	)
	assert.Nil(err)
	assert.Equal("literal", intermediate)

	intermediate, _, err = executor.Forward(
		&swaps.Session{MediaType: mediatype.MSGPACK}, stamp{},
	)
	assert.Nil(err)
	assert.Equal("wildcard", intermediate)
}

func TestEqualSpecificityRegistrationOrder(test *testing.T) {
	assert := assert.New(test)

	stampType := reflect.TypeOf(stamp{})

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(stampType, "first", "application/json"))
	registry.MustRegister(
		markerDef(stampType, "second", "application/json,text/xml"),
	)
	registry.Freeze()

	def := registry.Lookup(stampType, mediatype.JSON)
	assert.NotNil(def)

	intermediate, _ := def.Forward(nil, stamp{})
	assert.Equal("first", intermediate)
}

func TestUnconditionalLastRegisteredWins(test *testing.T) {
	assert := assert.New(test)

	stampType := reflect.TypeOf(stamp{})

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(stampType, "older", ""))
	registry.MustRegister(markerDef(stampType, "newer", ""))
	registry.Freeze()

	def := registry.Lookup(stampType, mediatype.JSON)
	assert.NotNil(def)

	intermediate, _ := def.Forward(nil, stamp{})
	assert.Equal("newer", intermediate)
}

func TestInterfaceSourceFallback(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(
		reflect.TypeOf((*named)(nil)).Elem(), "by-interface", "",
	))
	registry.Freeze()

	def := registry.Lookup(reflect.TypeOf(badge{}), mediatype.JSON)
	assert.NotNil(def)

	intermediate, _ := def.Forward(nil, badge{})
	assert.Equal("by-interface", intermediate)
}

func TestExactTypeBeatsInterface(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	registry.MustRegister(markerDef(
		reflect.TypeOf((*named)(nil)).Elem(), "by-interface", "",
	))
	registry.MustRegister(markerDef(reflect.TypeOf(badge{}), "by-type", ""))
	registry.Freeze()

	def := registry.Lookup(reflect.TypeOf(badge{}), mediatype.JSON)
	assert.NotNil(def)

	intermediate, _ := def.Forward(nil, badge{})
	assert.Equal("by-type", intermediate)
}

func TestForwardNoDefinition(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	registry.Freeze()
	executor := swaps.NewExecutor(registry)

	value := stamp{value: "untouched"}
	intermediate, def, err := executor.Forward(
		&swaps.Session{MediaType: mediatype.JSON}, value,
	)

	assert.Nil(err)
	assert.Nil(def)
	assert.Equal(value, intermediate)
}

func TestBackwardOneWayFails(test *testing.T) {
	assert := assert.New(test)

	oneWay := markerDef(reflect.TypeOf(stamp{}), "out-only", "")
	oneWay.Inverse = nil

	registry := swaps.NewRegistry()
	registry.MustRegister(oneWay)
	registry.Freeze()

	assert.False(oneWay.TwoWay())

	executor := swaps.NewExecutor(registry)
	restored, err := executor.Backward(
		&swaps.Session{MediaType: mediatype.JSON},
		"out-only",
		reflect.TypeOf(stamp{}),
	)

	assert.Nil(restored)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.UnswapError))
}

func TestBackwardNoDefinition(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewRegistry()
	registry.Freeze()
	executor := swaps.NewExecutor(registry)

	restored, err := executor.Backward(
		&swaps.Session{MediaType: mediatype.JSON},
		"anything",
		reflect.TypeOf(stamp{}),
	)

	assert.Nil(restored)
	assert.NotNil(err)

	pojoError, ok := err.(*pojoerrors.PojoError)
	assert.True(ok)
	assert.True(pojoError.IsType(pojoerrors.TypeResolutionError))
}

func TestDefaultRegistryRoundTrips(test *testing.T) {
	assert := assert.New(test)

	registry := swaps.NewDefaultRegistry()
	registry.Freeze()
	executor := swaps.NewExecutor(registry)
	session := &swaps.Session{MediaType: mediatype.JSON}

	moment := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	intermediate, def, err := executor.Forward(session, moment)
	assert.Nil(err)
	assert.NotNil(def)
	assert.Equal("2024-06-15T12:30:00Z", intermediate)

	restored, err := executor.Backward(
		session, intermediate, reflect.TypeOf(time.Time{}),
	)
	assert.Nil(err)
	assert.True(moment.Equal(restored.(time.Time)))

	intermediate, _, err = executor.Forward(session, 90*time.Minute)
	assert.Nil(err)
	assert.Equal("1h30m0s", intermediate)

	restored, err = executor.Backward(
		session, intermediate, reflect.TypeOf(time.Duration(0)),
	)
	assert.Nil(err)
	assert.Equal(90*time.Minute, restored)
}
