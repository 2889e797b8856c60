package pojotypes

/*
OrderedMap is the structural intermediate for all map-shaped data moving
through the engine. Go's built-in maps do not preserve insertion order, but
the tree walk guarantees map entries are visited in the order the underlying
structure defines them, so parsed documents and walked beans are staged in an
OrderedMap before being handed to a format module or assembled into a target
type.

The zero value is not usable; create instances with NewOrderedMap.
*/
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0),
		values: make(map[string]interface{}),
	}
}

// Set stores value under key. A key set twice keeps its original position.
func (orderedMap *OrderedMap) Set(key string, value interface{}) {
	if _, exists := orderedMap.values[key]; !exists {
		orderedMap.keys = append(orderedMap.keys, key)
	}
	orderedMap.values[key] = value
}

// Get returns the value stored under key and whether it was present.
func (orderedMap *OrderedMap) Get(key string) (interface{}, bool) {
	value, ok := orderedMap.values[key]
	return value, ok
}

// Delete removes key, preserving the relative order of the remaining keys.
func (orderedMap *OrderedMap) Delete(key string) {
	if _, exists := orderedMap.values[key]; !exists {
		return
	}
	delete(orderedMap.values, key)

	for i, existing := range orderedMap.keys {
		if existing == key {
			orderedMap.keys = append(orderedMap.keys[:i], orderedMap.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (orderedMap *OrderedMap) Keys() []string {
	return orderedMap.keys
}

// Len returns the number of entries.
func (orderedMap *OrderedMap) Len() int {
	return len(orderedMap.keys)
}
