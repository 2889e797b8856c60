package pojoerrors

import (
	"io"
	"strconv"
	"strings"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
)

// Returns a pojo error type definition. Each definition should only need to be
// declared once in a shared library for a given ecosystem, ensuring consistent
// error codes and names for the error type across all services / libraries.
func NewPojoErrorType(
	name string,
	apiCode int,
	httpCode int,
) *PojoErrorType {
	return &PojoErrorType{
		name:     name,
		apiCode:  apiCode,
		httpCode: httpCode,
	}
}

type headerFetcher interface {
	Get(key string) string
}

// Narrow view of the content engine used to parse header error data.
type contentParser interface {
	Parse(
		mediaType mediatype.MediaType, receiver interface{}, reader io.Reader,
	) error
}

/*
ErrorFromHeaders generates an error object from the headers of an HTTP
response. If a PojoError object can be made from the header data, a pointer to
it is returned. If an error code is detected in the headers, but the header
data is malformed and cannot be loaded, then hasError is returned as true and
a description of the parsing issue is returned in err.

If the headers do not contain an error, hasError will be false, pojoError will
be returned as a nil pointer, and err will specify that no error was found.
*/
func ErrorFromHeaders(
	headers headerFetcher,
	dataEngine contentParser,
	errorTypeCodeIndex map[int]*PojoErrorType,
) (pojoError *PojoError, hasError bool, err error) {

	// If there is no error code, then there is no error.
	errorCodeStr := headers.Get("error-code")
	if errorCodeStr == "" {
		return nil, false, xerrors.New("no error in headers")
	}

	// If the error code is not an int, then there is no error.
	errorCode, err := strconv.Atoi(errorCodeStr)
	if err != nil {
		return nil, false, xerrors.New("error-code not int")
	}

	if errorTypeCodeIndex == nil {
		return nil, true, xerrors.New("no error index provided")
	}
	errorType, ok := errorTypeCodeIndex[errorCode]
	if !ok {
		return nil, true, xerrors.New("no known error for code " + errorCodeStr)
	}

	errorMessage := headers.Get("error-message")
	errorIDStr := headers.Get("error-id")

	errorID, err := uuid.FromString(errorIDStr)
	if err != nil {
		return nil, true, xerrors.New("error ID is not valid UUID")
	}

	errorData := make(map[string]interface{})
	if errorDataStr := headers.Get("error-data"); errorDataStr != "" {
		stringReader := strings.NewReader(errorDataStr)
		err := dataEngine.Parse(mediatype.JSON, &errorData, stringReader)
		if err != nil {
			return nil, true, xerrors.New("error data could not be parsed as JSON")
		}
	}

	pojoError = errorType.New(errorMessage, errorData, nil)
	pojoError.ID = errorID

	return pojoError, true, nil
}
