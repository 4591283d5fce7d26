package layout

import "github.com/tsawler/transcribe/model"

// Kind is the classification tag of a page fragment
type Kind int

const (
	// KindFreeText is text emitted as-is, in encounter order
	KindFreeText Kind = iota
	// KindRowCandidate is horizontally flowing text eligible for row clustering
	KindRowCandidate
	// KindImage is an image object
	KindImage
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFreeText:
		return "free-text"
	case KindRowCandidate:
		return "row-candidate"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Classified is a fragment tagged with its Kind
type Classified struct {
	model.Fragment
	Kind Kind
}

// Classify returns the Kind of a single fragment.
//
// Image payloads always win. Text in a horizontal line container is a row
// candidate. Every other container, including ones this package does not
// know about, is free text so that no content is lost.
func Classify(f model.Fragment) Kind {
	if f.Image != nil {
		return KindImage
	}
	switch f.Container {
	case model.ContainerImage:
		return KindImage
	case model.ContainerTextLine:
		return KindRowCandidate
	case model.ContainerTextBlock, model.ContainerUnknown:
		return KindFreeText
	default:
		return KindFreeText
	}
}

// ClassifyPage tags every fragment of a page, preserving order.
// The result always has the same length as frags.
func ClassifyPage(frags []model.Fragment) []Classified {
	out := make([]Classified, len(frags))
	for i, f := range frags {
		out[i] = Classified{Fragment: f, Kind: Classify(f)}
	}
	return out
}
