package reader

import (
	"errors"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/transcribe/font"
)

var errNoToUnicode = errors.New("font has no ToUnicode map")

// pageFont decodes strings shown with one font resource
type pageFont struct {
	toUnicode *font.CMap
	codeBytes int // 2 for composite (Type0) fonts
}

func (f pageFont) decode(raw []byte) (string, int) {
	text, codes := f.toUnicode.Decode(raw, f.codeBytes)
	return clean(text), codes
}

// pageFonts loads the ToUnicode maps of the page's font resources, keyed by
// resource name. Fonts without a usable map are left out and their strings
// are decoded heuristically.
func (r *Reader) pageFonts(pageNr int) map[string]pageFont {
	_, _, attrs, err := r.ctx.PageDict(pageNr, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return nil
	}
	obj, found := attrs.Resources.Find("Font")
	if !found {
		return nil
	}
	fontDicts, err := r.ctx.DereferenceDict(obj)
	if err != nil || fontDicts == nil {
		return nil
	}

	fonts := make(map[string]pageFont, len(fontDicts))
	for name, obj := range fontDicts {
		fd, err := r.ctx.DereferenceDict(obj)
		if err != nil || fd == nil {
			continue
		}
		cmap, err := r.toUnicode(fd)
		if err != nil {
			continue
		}
		f := pageFont{toUnicode: cmap, codeBytes: 1}
		if st := fd.Subtype(); st != nil && *st == "Type0" {
			f.codeBytes = 2
		}
		fonts[name] = f
	}
	return fonts
}

// toUnicode parses the ToUnicode stream of a font dictionary
func (r *Reader) toUnicode(fd types.Dict) (*font.CMap, error) {
	obj, found := fd.Find("ToUnicode")
	if !found {
		return nil, errNoToUnicode
	}
	sd, _, err := r.ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, errNoToUnicode
	}
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, err
		}
	}
	return font.ParseCMap(sd.Content)
}
