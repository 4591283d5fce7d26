package transcribe

import (
	"errors"

	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/layout"
	"github.com/tsawler/transcribe/reader"
	"github.com/tsawler/transcribe/render"
)

// Errors reported by transcriptions. Match them with errors.Is; the
// package-level sentinels they alias may also be used directly.
var (
	// ErrSourceNotFound: the source file is missing or cannot be opened
	ErrSourceNotFound = reader.ErrNotFound

	// ErrUnsupportedSelection: an operation or output format that is not
	// implemented, or an unknown selector
	ErrUnsupportedSelection = format.ErrUnsupported

	// ErrInvalidOutputTarget: the output name is empty, a directory, or in
	// a directory that does not exist
	ErrInvalidOutputTarget = render.ErrInvalidOutputTarget

	// ErrImageIO: an image could not be written or embedded. It is logged
	// and replaced by a placeholder, never returned by a transcription.
	ErrImageIO = render.ErrImageIO

	// ErrPageOutOfRange: a selected page does not exist
	ErrPageOutOfRange = layout.ErrPageOutOfRange

	// ErrInvalidOption: a configuration value is out of range
	ErrInvalidOption = errors.New("transcribe: invalid option")
)
