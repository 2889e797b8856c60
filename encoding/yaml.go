package encoding

import (
	"encoding/json"
	"io"
	"sort"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

// YAML format module. Trees marshal through yaml.MapSlice so entry order
// survives serialization; the yaml library decodes nested mappings as
// unordered maps, which come back key-sorted.
type yamlSerializer struct{}

func (serializer *yamlSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	tree, err := walkToTree(engine, content, mediatype.YAML)
	if err != nil {
		return err
	}

	marshalled, err := yaml.Marshal(treeToYamlValue(tree))
	if err != nil {
		return xerrors.Errorf("error marshalling yaml: %w", err)
	}

	_, err = writer.Write(marshalled)
	return err
}

func (serializer *yamlSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return xerrors.Errorf("error reading yaml: %w", err)
	}

	var decoded interface{}
	if err = yaml.Unmarshal(raw, &decoded); err != nil {
		return xerrors.Errorf("error unmarshalling yaml: %w", err)
	}

	return assembleInto(
		engine, yamlValueToTree(decoded), contentReceiver, mediatype.YAML,
	)
}

func treeToYamlValue(node interface{}) interface{} {
	switch typed := node.(type) {
	case *pojotypes.OrderedMap:
		mapSlice := make(yaml.MapSlice, 0, typed.Len())
		for _, key := range typed.Keys() {
			entry, _ := typed.Get(key)
			mapSlice = append(
				mapSlice, yaml.MapItem{Key: key, Value: treeToYamlValue(entry)},
			)
		}
		return mapSlice

	case []interface{}:
		sequence := make([]interface{}, len(typed))
		for index, element := range typed {
			sequence[index] = treeToYamlValue(element)
		}
		return sequence

	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
		parsed, _ := typed.Float64()
		return parsed
	}
	return node
}

func yamlValueToTree(value interface{}) interface{} {
	switch typed := value.(type) {
	case yaml.MapSlice:
		orderedMap := pojotypes.NewOrderedMap()
		for _, item := range typed {
			key, ok := item.Key.(string)
			if !ok {
				key = scalarKeyText(item.Key)
			}
			orderedMap.Set(key, yamlValueToTree(item.Value))
		}
		return orderedMap

	case map[interface{}]interface{}:
		keys := make([]string, 0, len(typed))
		byText := make(map[string]interface{}, len(typed))
		for key, entry := range typed {
			text, ok := key.(string)
			if !ok {
				text = scalarKeyText(key)
			}
			keys = append(keys, text)
			byText[text] = entry
		}
		sort.Strings(keys)

		orderedMap := pojotypes.NewOrderedMap()
		for _, key := range keys {
			orderedMap.Set(key, yamlValueToTree(byText[key]))
		}
		return orderedMap

	case []interface{}:
		sequence := make([]interface{}, len(typed))
		for index, element := range typed {
			sequence[index] = yamlValueToTree(element)
		}
		return sequence

	case int:
		return int64(typed)
	}
	return value
}
