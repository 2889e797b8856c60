package swaps

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"reflect"
	"time"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

// Intermediate string extraction shared by the default inverse functions.
func intermediateString(intermediate interface{}) (string, error) {
	asString, ok := intermediate.(string)
	if !ok {
		return "", xerrors.Errorf(
			"expected string intermediate, got %T", intermediate,
		)
	}
	return asString, nil
}

/*
NewDefaultRegistry returns an unfrozen registry pre-loaded with the stock
swap definitions:

• time.Time ↔ RFC 3339 string

• time.Duration ↔ duration string ("1h30m")

• uuid.UUID ↔ canonical string form

• url.URL ↔ string

• pojotypes.BinData ↔ hex string

Callers add their own definitions on top, then Freeze().
*/
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	registry.MustRegister(&Definition{
		Source: reflect.TypeOf(time.Time{}),
		Target: reflect.TypeOf(""),
		Forward: func(session *Session, value interface{}) (interface{}, error) {
			return value.(time.Time).Format(time.RFC3339Nano), nil
		},
		Inverse: func(session *Session, intermediate interface{}) (interface{}, error) {
			asString, err := intermediateString(intermediate)
			if err != nil {
				return nil, err
			}
			return time.Parse(time.RFC3339Nano, asString)
		},
	})

	registry.MustRegister(&Definition{
		Source: reflect.TypeOf(time.Duration(0)),
		Target: reflect.TypeOf(""),
		Forward: func(session *Session, value interface{}) (interface{}, error) {
			return value.(time.Duration).String(), nil
		},
		Inverse: func(session *Session, intermediate interface{}) (interface{}, error) {
			asString, err := intermediateString(intermediate)
			if err != nil {
				return nil, err
			}
			return time.ParseDuration(asString)
		},
	})

	registry.MustRegister(&Definition{
		Source: reflect.TypeOf(uuid.UUID{}),
		Target: reflect.TypeOf(""),
		Forward: func(session *Session, value interface{}) (interface{}, error) {
			return value.(uuid.UUID).String(), nil
		},
		Inverse: func(session *Session, intermediate interface{}) (interface{}, error) {
			asString, err := intermediateString(intermediate)
			if err != nil {
				return nil, err
			}
			return uuid.FromString(asString)
		},
	})

	registry.MustRegister(&Definition{
		Source: reflect.TypeOf(url.URL{}),
		Target: reflect.TypeOf(""),
		Forward: func(session *Session, value interface{}) (interface{}, error) {
			asURL := value.(url.URL)
			return asURL.String(), nil
		},
		Inverse: func(session *Session, intermediate interface{}) (interface{}, error) {
			asString, err := intermediateString(intermediate)
			if err != nil {
				return nil, err
			}
			parsed, err := url.Parse(asString)
			if err != nil {
				return nil, err
			}
			return *parsed, nil
		},
	})

	registry.MustRegister(&Definition{
		Source: reflect.TypeOf(pojotypes.BinData{}),
		Target: reflect.TypeOf(""),
		Forward: func(session *Session, value interface{}) (interface{}, error) {
			return fmt.Sprintf(
				"%x", []byte(value.(pojotypes.BinData)),
			), nil
		},
		Inverse: func(session *Session, intermediate interface{}) (interface{}, error) {
			asString, err := intermediateString(intermediate)
			if err != nil {
				return nil, err
			}
			decoded, err := hex.DecodeString(asString)
			if err != nil {
				return nil, xerrors.Errorf("bad hex blob: %w", err)
			}
			return pojotypes.BinData(decoded), nil
		},
	})

	return registry
}
