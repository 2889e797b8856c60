package pojoerrors

import (
	"bytes"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
)

// Interface for objects that can set header information.
type headerSetter interface {
	Set(key string, value string)
}

// Narrow view of the content engine, so error headers can be rendered without
// this package importing the engine itself.
type contentSerializer interface {
	Serialize(
		mediaType mediatype.MediaType, content interface{}, writer io.Writer,
	) error
}

/*
PojoErrorType defines a TYPE of error the serialization core can return.

Each PojoErrorType for a given ecosystem should have a unique Name and
APICode. Codes 1000-1999 are reserved for pojotools' default error
definitions.

Since types are declared as pointers, to protect against accidental mutation
of the error type by other packages, the underlying fields of this struct are
private and accessed through functions. Define new error types using
NewPojoErrorType().
*/
type PojoErrorType struct {
	// Unique human-readable name of the error type.
	name string

	// Unique number to identify the error type.
	apiCode int

	// HTTP code a server surfacing this error should return. Set to -1 if the
	// http code is determined dynamically.
	httpCode int
}

// Returns a new error instance of this type.
func (errorType *PojoErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *PojoError {
	pojoError := PojoError{
		PojoErrorType: errorType,
		Message:       message,
		ID:            uuid.NewV4(),
		ErrorData:     errorData,
		sourceErr:     source,
		sourceStack:   debug.Stack(),
		frame:         xerrors.Caller(1),
	}
	return &pojoError
}

// Newf is shorthand for New with a Sprintf-formatted message and no error
// data.
func (errorType *PojoErrorType) Newf(
	format string, args ...interface{},
) *PojoError {
	return errorType.New(fmt.Sprintf(format, args...), nil, nil)
}

/*
Panic creates a new error of this type that is immediately passed to a panic.
Expected to be recovered by the content engine's panic capture. Allows errors
to be raised from anywhere inside a format handler without explicitly passing
them up a chain of nested function returns.
*/
func (errorType *PojoErrorType) Panic(
	message string,
	errorData map[string]interface{},
	source error,
) {
	panic(errorType.New(message, errorData, source))
}

// Unique human-readable name of the error type.
func (errorType *PojoErrorType) Name() string {
	return errorType.name
}

// Unique number identifying the error type.
func (errorType *PojoErrorType) APICode() int {
	return errorType.apiCode
}

// HTTP code a server surfacing this error should return. -1 when determined
// dynamically.
func (errorType *PojoErrorType) HTTPCode() int {
	return errorType.httpCode
}

// Returns a copy of the error type with the given http code replaced.
func (errorType *PojoErrorType) WithHTTPCode(newHTTPCode int) *PojoErrorType {
	return &PojoErrorType{
		name:     errorType.name,
		apiCode:  errorType.apiCode,
		httpCode: newHTTPCode,
	}
}

// Allows the error type definition itself to also be a valid error for things
// like testing error equality.
func (errorType *PojoErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.apiCode) + ")"
}

// PojoError is a specific error instance.
type PojoError struct {
	// The type of error we are returning.
	*PojoErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error being returned.
	ID uuid.UUID

	// A string / any mapping of data related to the error.
	ErrorData map[string]interface{}

	// If this error was returned because of another error, the original error
	// is stored here.
	sourceErr error

	// The debug.Stack() from where this error was instantiated.
	sourceStack []byte

	// The xerrors.Frame from where this error was instantiated.
	frame xerrors.Frame
}

// Returns true if the underlying type of this error is the same as errorType.
// Some errors may have multiple http codes possible, so we can't just compare
// ErrorType field equality directly.
func (pojoError *PojoError) IsType(errorType *PojoErrorType) bool {
	return pojoError.PojoErrorType.Error() == errorType.Error()
}

// Error string to conform to the builtin error interface.
func (pojoError *PojoError) Error() string {
	return pojoError.PojoErrorType.Error() + " - " + pojoError.Message
}

// Implements the xerrors.Wrapper interface.
func (pojoError *PojoError) Unwrap() error {
	return pojoError.sourceErr
}

// More verbose error message that includes a debug.Stack() and source error
// information. This is not part of Error(), Message, or ErrorData by default
// since it may contain sensitive information that is not desirable to return
// to a client.
func (pojoError *PojoError) LogMessage() string {
	return fmt.Sprint(
		"\nMESSAGE: ",
		pojoError.Error(),
		"\nORIGINAL: ",
		pojoError.sourceErr,
		"\nPANIC STACK:\n",
		string(pojoError.sourceStack),
	)
}

// ToHeader writes the error to an object which implements a
// Set(key string, value string) method like http.Request or http.Response
// headers. ErrorData is serialized as JSON through dataEngine.
func (pojoError *PojoError) ToHeader(
	setter headerSetter, dataEngine contentSerializer,
) error {
	setter.Set("error-name", pojoError.name)
	setter.Set("error-code", strconv.Itoa(pojoError.apiCode))
	setter.Set("error-message", pojoError.Message)
	setter.Set("error-id", pojoError.ID.String())

	if pojoError.ErrorData != nil {
		dataBytes := bytes.Buffer{}
		err := dataEngine.Serialize(mediatype.JSON, pojoError.ErrorData, &dataBytes)
		if err != nil {
			return err
		}
		setter.Set("error-data", dataBytes.String())
	}

	return nil
}
