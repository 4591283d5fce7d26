package reader

import (
	"fmt"
	"strings"

	"github.com/tsawler/transcribe/model"
)

const (
	// defaultGlyphWidth is the assumed advance of one glyph, in text space
	// units per unit of font size, when no font metrics are available.
	defaultGlyphWidth = 0.5

	// tjSpaceThreshold is the TJ adjustment (thousandths of an em, negated)
	// at which a kerning gap is read as a word space. Half of a quarter-em
	// space.
	tjSpaceThreshold = 125
)

// textState holds the text parameters of the graphics state
type textState struct {
	font        string
	fontSize    float64
	charSpacing float64
	wordSpacing float64
	hScale      float64 // Tz, as a fraction (1 = 100%)
	leading     float64
	rise        float64
}

type graphicsState struct {
	ctm  model.Matrix
	text textState
}

func defaultGraphicsState() graphicsState {
	return graphicsState{
		ctm:  model.Identity(),
		text: textState{fontSize: 1, hScale: 1},
	}
}

// interpreter replays a content stream and records fragments
type interpreter struct {
	gs    graphicsState
	stack []graphicsState

	tm  model.Matrix // text matrix
	tlm model.Matrix // text line matrix

	// images are the page's image XObjects by resource name. When imageErr
	// is set the page images could not be extracted and every Do is
	// reported as a failed image.
	images   map[string]*model.ImagePayload
	imageErr error
	inline   int

	// fonts are the page fonts carrying a ToUnicode map
	fonts map[string]pageFont

	fragments []model.Fragment
	open      int // index of the line segment still accepting text, or -1
}

func newInterpreter(fonts map[string]pageFont, images map[string]*model.ImagePayload, imageErr error) *interpreter {
	return &interpreter{
		gs:       defaultGraphicsState(),
		tm:       model.Identity(),
		tlm:      model.Identity(),
		fonts:    fonts,
		images:   images,
		imageErr: imageErr,
		open:     -1,
	}
}

// run executes ops and returns the recorded fragments
func (in *interpreter) run(ops []operation) []model.Fragment {
	for _, op := range ops {
		in.execute(op)
	}
	if in.fragments == nil {
		return []model.Fragment{}
	}
	return in.fragments
}

func (in *interpreter) execute(op operation) {
	args := op.operands

	switch op.operator {
	// Graphics state
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
		in.open = -1
	case "cm":
		if m, ok := matrixOperand(args); ok {
			in.gs.ctm = m.Multiply(in.gs.ctm)
			in.open = -1
		}

	// Text objects
	case "BT":
		in.tm = model.Identity()
		in.tlm = model.Identity()
		in.open = -1
	case "ET":
		in.open = -1

	// Text state
	case "Tf":
		if len(args) == 2 {
			if name, ok := args[0].(pdfName); ok {
				in.gs.text.font = string(name)
			}
			if size, ok := number(args[1]); ok {
				in.gs.text.fontSize = size
			}
		}
	case "Tc":
		if v, ok := lastNumber(args); ok {
			in.gs.text.charSpacing = v
		}
	case "Tw":
		if v, ok := lastNumber(args); ok {
			in.gs.text.wordSpacing = v
		}
	case "Tz":
		if v, ok := lastNumber(args); ok {
			in.gs.text.hScale = v / 100
		}
	case "TL":
		if v, ok := lastNumber(args); ok {
			in.gs.text.leading = v
		}
	case "Ts":
		if v, ok := lastNumber(args); ok {
			in.gs.text.rise = v
		}

	// Text positioning
	case "Td":
		if tx, ty, ok := twoNumbers(args); ok {
			in.moveLine(tx, ty)
		}
	case "TD":
		if tx, ty, ok := twoNumbers(args); ok {
			in.gs.text.leading = -ty
			in.moveLine(tx, ty)
		}
	case "Tm":
		if m, ok := matrixOperand(args); ok {
			in.tm = m
			in.tlm = m
			in.open = -1
		}
	case "T*":
		in.nextLine()

	// Text showing
	case "Tj":
		if len(args) == 1 {
			if s, ok := args[0].(pdfString); ok {
				in.show(pdfArray{s})
			}
		}
	case "TJ":
		if len(args) == 1 {
			if arr, ok := args[0].(pdfArray); ok {
				in.show(arr)
			}
		}
	case "'":
		in.nextLine()
		if len(args) == 1 {
			if s, ok := args[0].(pdfString); ok {
				in.show(pdfArray{s})
			}
		}
	case "\"":
		if len(args) == 3 {
			if aw, ok := number(args[0]); ok {
				in.gs.text.wordSpacing = aw
			}
			if ac, ok := number(args[1]); ok {
				in.gs.text.charSpacing = ac
			}
			in.nextLine()
			if s, ok := args[2].(pdfString); ok {
				in.show(pdfArray{s})
			}
		}

	// XObjects
	case "Do":
		if len(args) == 1 {
			if name, ok := args[0].(pdfName); ok {
				in.drawXObject(string(name))
			}
		}
	case "BI":
		in.drawInline(args)
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = model.Translate(tx, ty).Multiply(in.tlm)
	in.tm = in.tlm
	in.open = -1
}

func (in *interpreter) nextLine() {
	in.moveLine(0, -in.gs.text.leading)
}

// show paints a TJ-style array of strings and kerning adjustments. Text that
// continues the current line segment is appended to the open fragment.
func (in *interpreter) show(items pdfArray) {
	ts := in.gs.text

	for _, item := range items {
		switch v := item.(type) {
		case float64:
			adv := -v / 1000 * ts.fontSize * ts.hScale
			in.tm = model.Translate(adv, 0).Multiply(in.tm)
			if -v >= tjSpaceThreshold && in.open >= 0 {
				f := &in.fragments[in.open]
				if !strings.HasSuffix(f.Text, " ") {
					f.Text += " "
				}
			}
		case pdfString:
			in.showString(v)
		}
	}
}

func (in *interpreter) showString(s pdfString) {
	ts := in.gs.text
	var (
		text   string
		glyphs int
	)
	if f, ok := in.fonts[ts.font]; ok {
		text, glyphs = f.decode(s.raw)
	} else {
		text, glyphs = decodeString(s)
	}
	if glyphs == 0 {
		return
	}

	// word spacing only applies to single-byte codes
	spaces := 0
	if glyphs == len(s.raw) {
		spaces = strings.Count(text, " ")
	}
	tx := (float64(glyphs)*(defaultGlyphWidth*ts.fontSize+ts.charSpacing) +
		float64(spaces)*ts.wordSpacing) * ts.hScale

	// Corners of the run in unscaled text space, mapped to the page
	device := in.tm.Multiply(in.gs.ctm)
	p0 := device.Transform(model.Point{X: 0, Y: ts.rise})
	p1 := device.Transform(model.Point{X: tx, Y: ts.rise + ts.fontSize})
	p2 := device.Transform(model.Point{X: tx, Y: ts.rise})
	p3 := device.Transform(model.Point{X: 0, Y: ts.rise + ts.fontSize})
	bbox := model.NewBBoxFromPoints(p0, p1).
		Union(model.NewBBoxFromPoints(p2, p3))

	if in.open >= 0 {
		f := &in.fragments[in.open]
		f.Text += text
		f.BBox = f.BBox.Union(bbox)
	} else {
		rendering := model.Matrix{ts.fontSize * ts.hScale, 0, 0, ts.fontSize, 0, ts.rise}.Multiply(device)
		container := model.ContainerTextBlock
		if rendering.IsUpright() {
			container = model.ContainerTextLine
		}
		in.fragments = append(in.fragments, model.Fragment{
			BBox:      bbox,
			Container: container,
			Text:      text,
		})
		in.open = len(in.fragments) - 1
	}

	in.tm = model.Translate(tx, 0).Multiply(in.tm)
}

func (in *interpreter) drawXObject(name string) {
	payload, ok := in.images[name]
	if !ok {
		if in.imageErr == nil {
			// form XObjects are not descended into
			return
		}
		payload = model.NewFailedImagePayload(name, in.imageErr)
	}

	in.fragments = append(in.fragments, model.Fragment{
		BBox:      in.gs.ctm.BBoxOfUnitSquare(),
		Container: model.ContainerImage,
		Image:     payload,
	})
	in.open = -1
}

func (in *interpreter) drawInline(args []any) {
	in.inline++
	name := fmt.Sprintf("inline-%d", in.inline)

	var data []byte
	if len(args) == 2 {
		if params, ok := args[0].(pdfDict); ok && isDCT(params) {
			name += ".jpg"
		}
		data, _ = args[1].([]byte)
	}

	in.fragments = append(in.fragments, model.Fragment{
		BBox:      in.gs.ctm.BBoxOfUnitSquare(),
		Container: model.ContainerImage,
		Image:     model.NewImagePayload(name, data),
	})
	in.open = -1
}

// isDCT reports whether an inline image is JPEG encoded
func isDCT(params pdfDict) bool {
	filter, ok := params["F"]
	if !ok {
		filter = params["Filter"]
	}
	switch f := filter.(type) {
	case pdfName:
		return f == "DCT" || f == "DCTDecode"
	case pdfArray:
		if len(f) == 1 {
			return isDCT(pdfDict{"F": f[0]})
		}
	}
	return false
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func lastNumber(args []any) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	return number(args[len(args)-1])
}

func twoNumbers(args []any) (float64, float64, bool) {
	if len(args) != 2 {
		return 0, 0, false
	}
	a, ok1 := number(args[0])
	b, ok2 := number(args[1])
	return a, b, ok1 && ok2
}

func matrixOperand(args []any) (model.Matrix, bool) {
	if len(args) != 6 {
		return model.Matrix{}, false
	}
	var m model.Matrix
	for i, a := range args {
		v, ok := number(a)
		if !ok {
			return model.Matrix{}, false
		}
		m[i] = v
	}
	return m, true
}
