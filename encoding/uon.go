package encoding

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/pojotools-go/mediatype"
	"github.com/illuscio-dev/pojotools-go/pojotypes"
)

/*
UON format module.

UON renders maps as (key=value,key=value), sequences as @(a,b,c), and the
literals true, false and null. Strings that could be mistaken for another
token, or that contain grammar characters, are single-quoted with '~' as the
escape character.
*/
type uonSerializer struct{}

func (serializer *uonSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	emitter := &uonEmitter{writer: writer}
	return engine.Walker().Walk(content, mediatype.UON, emitter)
}

func (serializer *uonSerializer) Parse(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return xerrors.Errorf("error reading uon: %w", err)
	}

	uonReader := &uonReader{text: strings.TrimSpace(string(raw))}
	tree, err := uonReader.readValue()
	if err != nil {
		return err
	}
	if uonReader.pos != len(uonReader.text) {
		return xerrors.New("trailing characters after uon value")
	}

	return assembleInto(engine, tree, contentReceiver, mediatype.UON)
}

type uonEmitter struct {
	writer io.Writer
	// Tracks whether the current container already has a member, so commas
	// land between members only.
	hasMember []bool
}

func (emitter *uonEmitter) write(text string) error {
	_, err := io.WriteString(emitter.writer, text)
	return err
}

func (emitter *uonEmitter) beginValue() error {
	if len(emitter.hasMember) == 0 {
		return nil
	}
	last := len(emitter.hasMember) - 1
	if emitter.hasMember[last] {
		if err := emitter.write(","); err != nil {
			return err
		}
	}
	emitter.hasMember[last] = true
	return nil
}

func (emitter *uonEmitter) EnterMap() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.hasMember = append(emitter.hasMember, false)
	return emitter.write("(")
}

func (emitter *uonEmitter) MapKey(key string) error {
	// Keys lead their member, so the separator comma goes here.
	last := len(emitter.hasMember) - 1
	if emitter.hasMember[last] {
		if err := emitter.write(","); err != nil {
			return err
		}
	}
	emitter.hasMember[last] = true
	if err := emitter.write(uonEncodeString(key)); err != nil {
		return err
	}
	// The value after '=' must not add another comma.
	emitter.hasMember[last] = false
	if err := emitter.write("="); err != nil {
		return err
	}
	return nil
}

func (emitter *uonEmitter) ExitMap() error {
	emitter.hasMember = emitter.hasMember[:len(emitter.hasMember)-1]
	if err := emitter.write(")"); err != nil {
		return err
	}
	return emitter.afterValue()
}

func (emitter *uonEmitter) EnterSequence() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.hasMember = append(emitter.hasMember, false)
	return emitter.write("@(")
}

func (emitter *uonEmitter) ExitSequence() error {
	emitter.hasMember = emitter.hasMember[:len(emitter.hasMember)-1]
	if err := emitter.write(")"); err != nil {
		return err
	}
	return emitter.afterValue()
}

func (emitter *uonEmitter) Scalar(value interface{}) error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	if err := emitter.write(uonScalarText(value)); err != nil {
		return err
	}
	return emitter.afterValue()
}

func (emitter *uonEmitter) Null() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	if err := emitter.write("null"); err != nil {
		return err
	}
	return emitter.afterValue()
}

func (emitter *uonEmitter) Recursion(reference interface{}) error {
	return emitter.Null()
}

// Map values reset the member flag in MapKey so '=' is not followed by a
// comma; restore it once the value lands.
func (emitter *uonEmitter) afterValue() error {
	if len(emitter.hasMember) != 0 {
		emitter.hasMember[len(emitter.hasMember)-1] = true
	}
	return nil
}

func uonScalarText(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return uonEncodeString(typed)
	case bool:
		return strconv.FormatBool(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	}
	return "null"
}

// Quotes a string when leaving it bare would collide with the grammar.
func uonEncodeString(text string) string {
	if text == "" || uonNeedsQuotes(text) {
		var builder strings.Builder
		builder.WriteByte('\'')
		for _, character := range text {
			if character == '\'' || character == '~' {
				builder.WriteByte('~')
			}
			builder.WriteRune(character)
		}
		builder.WriteByte('\'')
		return builder.String()
	}
	return text
}

func uonNeedsQuotes(text string) bool {
	switch text {
	case "true", "false", "null":
		return true
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return true
	}
	return strings.ContainsAny(text, "(),=@'~ \t\n")
}

// Recursive-descent reader for the UON grammar.
type uonReader struct {
	text string
	pos  int
}

func (reader *uonReader) peek() (byte, bool) {
	if reader.pos >= len(reader.text) {
		return 0, false
	}
	return reader.text[reader.pos], true
}

func (reader *uonReader) expect(character byte) error {
	current, ok := reader.peek()
	if !ok || current != character {
		return xerrors.Errorf(
			"expected %q at position %v in uon text", string(character), reader.pos,
		)
	}
	reader.pos++
	return nil
}

func (reader *uonReader) readValue() (interface{}, error) {
	current, ok := reader.peek()
	if !ok {
		return nil, xerrors.New("unexpected end of uon text")
	}

	switch {
	case current == '(':
		return reader.readMap()
	case current == '@':
		return reader.readSequence()
	case current == '\'':
		return reader.readQuoted()
	}

	token := reader.readToken()
	switch token {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if _, err := strconv.ParseFloat(token, 64); err == nil {
		return json.Number(token), nil
	}
	return token, nil
}

func (reader *uonReader) readMap() (interface{}, error) {
	if err := reader.expect('('); err != nil {
		return nil, err
	}

	orderedMap := pojotypes.NewOrderedMap()
	if current, ok := reader.peek(); ok && current == ')' {
		reader.pos++
		return orderedMap, nil
	}

	for {
		key, err := reader.readKey()
		if err != nil {
			return nil, err
		}
		if err = reader.expect('='); err != nil {
			return nil, err
		}
		value, err := reader.readValue()
		if err != nil {
			return nil, err
		}
		orderedMap.Set(key, value)

		current, ok := reader.peek()
		if !ok {
			return nil, xerrors.New("unterminated uon map")
		}
		if current == ')' {
			reader.pos++
			return orderedMap, nil
		}
		if err = reader.expect(','); err != nil {
			return nil, err
		}
	}
}

func (reader *uonReader) readSequence() (interface{}, error) {
	if err := reader.expect('@'); err != nil {
		return nil, err
	}
	if err := reader.expect('('); err != nil {
		return nil, err
	}

	sequence := make([]interface{}, 0)
	if current, ok := reader.peek(); ok && current == ')' {
		reader.pos++
		return sequence, nil
	}

	for {
		element, err := reader.readValue()
		if err != nil {
			return nil, err
		}
		sequence = append(sequence, element)

		current, ok := reader.peek()
		if !ok {
			return nil, xerrors.New("unterminated uon sequence")
		}
		if current == ')' {
			reader.pos++
			return sequence, nil
		}
		if err = reader.expect(','); err != nil {
			return nil, err
		}
	}
}

func (reader *uonReader) readKey() (string, error) {
	if current, ok := reader.peek(); ok && current == '\'' {
		return reader.readQuoted()
	}
	token := reader.readTokenUntil("=,()")
	if token == "" {
		return "", xerrors.Errorf("empty uon key at position %v", reader.pos)
	}
	return token, nil
}

func (reader *uonReader) readQuoted() (string, error) {
	if err := reader.expect('\''); err != nil {
		return "", err
	}

	var builder strings.Builder
	for reader.pos < len(reader.text) {
		current := reader.text[reader.pos]
		reader.pos++
		switch current {
		case '~':
			if reader.pos >= len(reader.text) {
				return "", xerrors.New("dangling escape in uon string")
			}
			builder.WriteByte(reader.text[reader.pos])
			reader.pos++
		case '\'':
			return builder.String(), nil
		default:
			builder.WriteByte(current)
		}
	}
	return "", xerrors.New("unterminated uon string")
}

func (reader *uonReader) readToken() string {
	return reader.readTokenUntil(",()")
}

func (reader *uonReader) readTokenUntil(stops string) string {
	start := reader.pos
	for reader.pos < len(reader.text) {
		if strings.IndexByte(stops, reader.text[reader.pos]) >= 0 {
			break
		}
		reader.pos++
	}
	return reader.text[start:reader.pos]
}
