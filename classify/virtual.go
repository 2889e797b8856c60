package classify

import (
	"reflect"

	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

/*
VirtualBean is the tagged-variant stand-in for bean targets declared as an
interface with no registered implementation: the interface type plus the
backing property map. Go cannot synthesize a concrete implementation of an
arbitrary interface at runtime, so parse produces this pair and callers read
properties through the Get accessor instead of interface method calls.
*/
type VirtualBean struct {
	// The interface type this bean was declared as.
	Interface reflect.Type

	// The parsed property values backing the bean, in wire order.
	Properties *pojotypes.OrderedMap
}

// NewVirtualBean returns a virtual bean for the given interface type.
func NewVirtualBean(
	interfaceType reflect.Type, properties *pojotypes.OrderedMap,
) *VirtualBean {
	if properties == nil {
		properties = pojotypes.NewOrderedMap()
	}
	return &VirtualBean{
		Interface:  interfaceType,
		Properties: properties,
	}
}

// Get reads a property by name, the dynamic-proxy-equivalent accessor built
// at construction from the property map.
func (bean *VirtualBean) Get(name string) (interface{}, bool) {
	return bean.Properties.Get(name)
}
