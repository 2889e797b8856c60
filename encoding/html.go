package encoding

import (
	"html"
	"io"
	"strconv"

	"github.com/illuscio-dev/pojotools-go/mediatype"
)

// HTML is a one-way rendering: maps become two-column tables, sequences
// become unordered lists. There is no parser for it.
type htmlSerializer struct{}

func (serializer *htmlSerializer) Serialize(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	emitter := &htmlEmitter{writer: writer}
	return engine.Walker().Walk(content, mediatype.HTML, emitter)
}

type htmlEmitter struct {
	writer io.Writer
	frames []byte // 'm' for map, 's' for sequence
}

func (emitter *htmlEmitter) write(text string) error {
	_, err := io.WriteString(emitter.writer, text)
	return err
}

func (emitter *htmlEmitter) beginValue() error {
	if len(emitter.frames) == 0 {
		return nil
	}
	if emitter.frames[len(emitter.frames)-1] == 's' {
		return emitter.write("<li>")
	}
	return nil
}

func (emitter *htmlEmitter) endValue() error {
	if len(emitter.frames) == 0 {
		return nil
	}
	if emitter.frames[len(emitter.frames)-1] == 's' {
		return emitter.write("</li>")
	}
	return emitter.write("</td></tr>")
}

func (emitter *htmlEmitter) EnterMap() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.frames = append(emitter.frames, 'm')
	return emitter.write("<table>")
}

func (emitter *htmlEmitter) MapKey(key string) error {
	return emitter.write("<tr><th>" + html.EscapeString(key) + "</th><td>")
}

func (emitter *htmlEmitter) ExitMap() error {
	emitter.frames = emitter.frames[:len(emitter.frames)-1]
	if err := emitter.write("</table>"); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *htmlEmitter) EnterSequence() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	emitter.frames = append(emitter.frames, 's')
	return emitter.write("<ul>")
}

func (emitter *htmlEmitter) ExitSequence() error {
	emitter.frames = emitter.frames[:len(emitter.frames)-1]
	if err := emitter.write("</ul>"); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *htmlEmitter) Scalar(value interface{}) error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	if err := emitter.write(html.EscapeString(htmlScalarText(value))); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *htmlEmitter) Null() error {
	if err := emitter.beginValue(); err != nil {
		return err
	}
	if err := emitter.write("<null/>"); err != nil {
		return err
	}
	return emitter.endValue()
}

func (emitter *htmlEmitter) Recursion(reference interface{}) error {
	return emitter.Null()
}

func htmlScalarText(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	}
	return ""
}
