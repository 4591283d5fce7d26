package format

import (
	"fmt"
	"strings"
)

// Operation is what to do with the source document.
type Operation int

const (
	// Transcription reconstructs the document layout and writes it out.
	Transcription Operation = iota + 1
	// Translation is reserved.
	Translation
	// Summary is reserved.
	Summary
	// Extensions is the reserved slot for future operations.
	Extensions
)

// Operations lists every operation in menu order.
var Operations = []Operation{Transcription, Translation, Summary, Extensions}

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case Transcription:
		return "transcription"
	case Translation:
		return "translation"
	case Summary:
		return "summary"
	case Extensions:
		return "extensions"
	default:
		return "unknown"
	}
}

// Supported reports whether the operation is implemented.
func (o Operation) Supported() bool {
	return o == Transcription
}

// Check returns ErrUnsupported for anything but an implemented operation.
func (o Operation) Check() error {
	if !o.Supported() {
		return fmt.Errorf("%w: operation %s is not implemented yet", ErrUnsupported, o)
	}
	return nil
}

// ParseOperation resolves an operation selector: a menu number or a name.
// Reserved operations parse successfully; use Check before running one.
func ParseOperation(selector string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "1", "transcription", "transcribe":
		return Transcription, nil
	case "2", "translation", "translate":
		return Translation, nil
	case "3", "summary", "summarize":
		return Summary, nil
	case "4", "extensions":
		return Extensions, nil
	}
	return 0, fmt.Errorf("%w: operation %q", ErrUnsupported, selector)
}
