// Package xmlwriter builds XML documents top-down with explicit element
// state tracking. It emits exactly what it is told, in order: attribute
// order is emission order, attributes are always double-quoted, and
// childless elements self-close. Downstream consumers depend on this
// byte-stable output, so the writer never reorders or reformats.
package xmlwriter

import (
	"bytes"
	"errors"
	"strings"
)

// State describes where the writer is in the document lifecycle.
type State int

const (
	// StateOpenElement means the most recent start tag is still open and
	// may receive attributes.
	StateOpenElement State = iota
	// StateClosedElement means the writer is inside an element body,
	// ready for child elements or text.
	StateClosedElement
	// StateFinish means the root element has been closed; the document is
	// complete and immutable.
	StateFinish
)

var (
	// ErrWriterFinished indicates a mutation was attempted after the root
	// element was closed.
	ErrWriterFinished = errors.New("xmlwriter: document already finished")
	// ErrNoOpenElement indicates AddAttribute was called with no start
	// tag open.
	ErrNoOpenElement = errors.New("xmlwriter: no open element for attribute")
	// ErrRootNotFound indicates Initialize could not locate the close tag
	// of the requested root element in the source document.
	ErrRootNotFound = errors.New("xmlwriter: root close tag not found in source")
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// Writer serializes one XML document. It is single-owner state: the
// first misuse latches into an error that CloseElement and Err report,
// and all later mutations become no-ops.
type Writer struct {
	buf   bytes.Buffer
	stack []string
	state State
	err   error
}

// NewWriter opens a fresh document with root as its top-level element.
// The start tag is left open so the caller can add namespace and other
// root attributes before the first child.
func NewWriter(root string) *Writer {
	w := &Writer{}
	w.buf.WriteString(xmlDeclaration)
	w.buf.WriteString("<" + root)
	w.stack = append(w.stack, root)
	w.state = StateOpenElement
	return w
}

// Initialize resumes an existing document for appending children inside
// the named root element. Everything before the root's close tag is
// preserved verbatim; the close tag itself is dropped and will be
// re-emitted when the root is closed again. The source must be prior
// output of a compatible serializer (well-formed, double-quoted
// attributes).
func Initialize(source []byte, root string) (*Writer, error) {
	closeTag := []byte("</" + root + ">")
	idx := bytes.LastIndex(source, closeTag)
	if idx < 0 {
		return nil, ErrRootNotFound
	}
	w := &Writer{}
	w.buf.Write(source[:idx])
	w.stack = append(w.stack, root)
	w.state = StateClosedElement
	return w, nil
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// closePending terminates a still-open start tag with ">" so children or
// text can follow.
func (w *Writer) closePending() {
	if w.state == StateOpenElement {
		w.buf.WriteString(">")
		w.state = StateClosedElement
	}
}

// StartElement begins a child element. The start tag stays open for
// attributes until the next StartElement, AddText, or CloseElement.
func (w *Writer) StartElement(name string) {
	if w.err != nil {
		return
	}
	if w.state == StateFinish {
		w.setErr(ErrWriterFinished)
		return
	}
	w.closePending()
	w.buf.WriteString("<" + name)
	w.stack = append(w.stack, name)
	w.state = StateOpenElement
}

// AddAttribute appends one attribute to the currently open start tag.
func (w *Writer) AddAttribute(name, value string) {
	if w.err != nil {
		return
	}
	if w.state != StateOpenElement {
		w.setErr(ErrNoOpenElement)
		return
	}
	w.buf.WriteString(" " + name + `="`)
	w.buf.WriteString(attrEscaper.Replace(value))
	w.buf.WriteString(`"`)
}

// AddText writes escaped character data inside the current element.
func (w *Writer) AddText(text string) {
	if w.err != nil {
		return
	}
	if w.state == StateFinish {
		w.setErr(ErrWriterFinished)
		return
	}
	w.closePending()
	w.buf.WriteString(textEscaper.Replace(text))
}

// CloseElement ends the innermost element: "/>" when its start tag is
// still open with no children, a full close tag otherwise. Closing the
// root moves the writer to StateFinish. It returns any latched misuse
// error so callers funnel error checks through a single point.
func (w *Writer) CloseElement() error {
	if w.err != nil {
		return w.err
	}
	if w.state == StateFinish {
		w.setErr(ErrWriterFinished)
		return w.err
	}
	name := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	if w.state == StateOpenElement {
		w.buf.WriteString("/>")
	} else {
		w.buf.WriteString("</" + name + ">")
	}
	if len(w.stack) == 0 {
		w.state = StateFinish
	} else {
		w.state = StateClosedElement
	}
	return nil
}

// State reports the writer's current lifecycle state.
func (w *Writer) State() State { return w.state }

// Err returns the first misuse error, if any.
func (w *Writer) Err() error { return w.err }

// Bytes returns the document serialized so far. The slice aliases the
// writer's buffer; callers must not retain it across further writes.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
