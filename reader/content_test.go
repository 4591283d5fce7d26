package reader

import (
	"bytes"
	"math"
	"testing"

	"github.com/tsawler/transcribe/font"
	"github.com/tsawler/transcribe/model"
)

func TestParseContent_Operators(t *testing.T) {
	ops := parseContent([]byte("q 1 0 0 1 10 20 cm BT /F1 12 Tf (Hi) Tj [(A) -120 (B)] TJ ET Q"))

	want := []string{"q", "cm", "BT", "Tf", "Tj", "TJ", "ET", "Q"}
	if len(ops) != len(want) {
		t.Fatalf("got %d ops, want %d", len(ops), len(want))
	}
	for i, op := range ops {
		if op.operator != want[i] {
			t.Errorf("op %d = %q, want %q", i, op.operator, want[i])
		}
	}

	if len(ops[1].operands) != 6 {
		t.Errorf("cm operands = %d, want 6", len(ops[1].operands))
	}
	if name, _ := ops[3].operands[0].(pdfName); name != "F1" {
		t.Errorf("Tf font = %q, want F1", name)
	}
	arr, ok := ops[5].operands[0].(pdfArray)
	if !ok || len(arr) != 3 {
		t.Fatalf("TJ operand = %#v", ops[5].operands)
	}
	if n, _ := arr[1].(float64); n != -120 {
		t.Errorf("TJ adjustment = %v, want -120", n)
	}
}

func TestParseContent_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
		hex   bool
	}{
		{"simple", "(Hello) Tj", []byte("Hello"), false},
		{"nested", "(a (b) c) Tj", []byte("a (b) c"), false},
		{"escapes", `(a\(b\)\\c\n) Tj`, []byte("a(b)\\c\n"), false},
		{"octal", `(\101\102\0) Tj`, []byte{'A', 'B', 0}, false},
		{"continuation", "(ab\\\ncd) Tj", []byte("abcd"), false},
		{"hex", "<48656C6C6F> Tj", []byte("Hello"), true},
		{"hex odd", "<4 8 6> Tj", []byte{0x48, 0x60}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := parseContent([]byte(tt.input))
			if len(ops) != 1 || len(ops[0].operands) != 1 {
				t.Fatalf("unexpected ops %#v", ops)
			}
			s, ok := ops[0].operands[0].(pdfString)
			if !ok {
				t.Fatalf("operand is %T, want pdfString", ops[0].operands[0])
			}
			if !bytes.Equal(s.raw, tt.want) {
				t.Errorf("raw = %q, want %q", s.raw, tt.want)
			}
			if s.hex != tt.hex {
				t.Errorf("hex = %v, want %v", s.hex, tt.hex)
			}
		})
	}
}

func TestParseContent_NamesAndComments(t *testing.T) {
	ops := parseContent([]byte("% comment line\n/Im#201 Do"))
	if len(ops) != 1 || ops[0].operator != "Do" {
		t.Fatalf("unexpected ops %#v", ops)
	}
	if name := ops[0].operands[0].(pdfName); name != "Im 1" {
		t.Errorf("name = %q, want %q", name, "Im 1")
	}
}

func TestParseContent_InlineImage(t *testing.T) {
	data := "q 50 0 0 40 10 10 cm BI /W 2 /H 2 /F /DCT ID \xff\xd8EIx\xff EI Q"
	ops := parseContent([]byte(data))

	if len(ops) != 4 || ops[2].operator != "BI" {
		t.Fatalf("unexpected ops %#v", ops)
	}
	params := ops[2].operands[0].(pdfDict)
	if params["F"] != pdfName("DCT") {
		t.Errorf("filter = %#v", params["F"])
	}
	if w, _ := params["W"].(float64); w != 2 {
		t.Errorf("W = %v", params["W"])
	}
	raw := ops[2].operands[1].([]byte)
	if !bytes.Equal(raw, []byte("\xff\xd8EIx\xff")) {
		t.Errorf("data = %q", raw)
	}
	if ops[3].operator != "Q" {
		t.Errorf("after inline image got %q, want Q", ops[3].operator)
	}
}

func TestParseContent_QuoteOperators(t *testing.T) {
	ops := parseContent([]byte(`(one)' 1 2 (two)"`))
	if len(ops) != 2 || ops[0].operator != "'" || ops[1].operator != `"` {
		t.Fatalf("unexpected ops %#v", ops)
	}
	if len(ops[1].operands) != 3 {
		t.Errorf(`" operands = %d, want 3`, len(ops[1].operands))
	}
}

func interpret(content string) []model.Fragment {
	return newInterpreter(nil, nil, nil).run(parseContent([]byte(content)))
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestInterpreter_TextPosition(t *testing.T) {
	frags := interpret("BT /F1 12 Tf 72 720 Td (Hello) Tj ET")
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}

	f := frags[0]
	if f.Text != "Hello" {
		t.Errorf("Text = %q", f.Text)
	}
	if f.Container != model.ContainerTextLine {
		t.Errorf("Container = %v, want text-line", f.Container)
	}
	if !approx(f.BBox.Left(), 72) || !approx(f.BBox.Bottom(), 720) {
		t.Errorf("origin = (%v, %v), want (72, 720)", f.BBox.Left(), f.BBox.Bottom())
	}
	// 5 glyphs * 12pt * 0.5
	if !approx(f.BBox.Width, 30) || !approx(f.BBox.Height, 12) {
		t.Errorf("size = %vx%v, want 30x12", f.BBox.Width, f.BBox.Height)
	}
}

func TestInterpreter_LineSegments(t *testing.T) {
	content := `BT /F1 10 Tf 14 TL
		50 700 Td (Name) Tj ( continues) Tj
		200 0 Td (Total) Tj
		T* (next) Tj
		(quoted)'
		ET`
	frags := interpret(content)

	want := []struct {
		text string
		x, y float64
	}{
		{"Name continues", 50, 700},
		{"Total", 250, 700},
		{"next", 250, 686},
		{"quoted", 250, 672},
	}
	if len(frags) != len(want) {
		t.Fatalf("got %d fragments, want %d: %#v", len(frags), len(want), frags)
	}
	for i, w := range want {
		f := frags[i]
		if f.Text != w.text {
			t.Errorf("fragment %d text = %q, want %q", i, f.Text, w.text)
		}
		if !approx(f.BBox.Left(), w.x) || !approx(f.BBox.Bottom(), w.y) {
			t.Errorf("fragment %d at (%v, %v), want (%v, %v)", i, f.BBox.Left(), f.BBox.Bottom(), w.x, w.y)
		}
	}
}

func TestInterpreter_TJSpacing(t *testing.T) {
	frags := interpret("BT /F1 10 Tf 0 0 Td [(Ker) -20 (ning) -300 (word)] TJ ET")
	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if frags[0].Text != "Kerning word" {
		t.Errorf("Text = %q, want %q", frags[0].Text, "Kerning word")
	}
}

func TestInterpreter_TmAndCTM(t *testing.T) {
	frags := interpret("q 2 0 0 2 10 10 cm BT /F1 6 Tf 1 0 0 1 5 5 Tm (x) Tj ET Q BT /F1 6 Tf 1 0 0 1 5 5 Tm (y) Tj ET")
	if len(frags) != 2 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if !approx(frags[0].BBox.Left(), 20) || !approx(frags[0].BBox.Bottom(), 20) {
		t.Errorf("scaled origin = (%v, %v), want (20, 20)", frags[0].BBox.Left(), frags[0].BBox.Bottom())
	}
	if !approx(frags[0].BBox.Height, 12) {
		t.Errorf("scaled height = %v, want 12", frags[0].BBox.Height)
	}
	if !approx(frags[1].BBox.Left(), 5) {
		t.Errorf("restored origin x = %v, want 5", frags[1].BBox.Left())
	}
}

func TestInterpreter_RotatedTextIsBlock(t *testing.T) {
	frags := interpret("BT /F1 12 Tf 0 1 -1 0 300 100 Tm (side) Tj ET")
	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if frags[0].Container != model.ContainerTextBlock {
		t.Errorf("Container = %v, want text-block", frags[0].Container)
	}
}

func TestInterpreter_Images(t *testing.T) {
	images := map[string]*model.ImagePayload{
		"Im1": model.NewImagePayload("Im1.png", []byte("png")),
	}
	ops := parseContent([]byte("q 100 0 0 50 72 600 cm /Im1 Do Q /Fm1 Do"))
	frags := newInterpreter(nil, images, nil).run(ops)

	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1 (forms are skipped)", len(frags))
	}
	f := frags[0]
	if f.Container != model.ContainerImage || f.Image.Name != "Im1.png" {
		t.Errorf("fragment = %+v", f)
	}
	want := model.NewBBox(72, 600, 100, 50)
	if f.BBox != want {
		t.Errorf("BBox = %+v, want %+v", f.BBox, want)
	}
}

func TestInterpreter_ImageExtractionFailure(t *testing.T) {
	ops := parseContent([]byte("/Im9 Do"))
	frags := newInterpreter(nil, nil, bytes.ErrTooLarge).run(ops)
	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if _, err := frags[0].Image.Open(); err == nil {
		t.Error("expected failed payload")
	}
}

func TestInterpreter_InlineImage(t *testing.T) {
	frags := interpret("q 10 0 0 10 0 0 cm BI /W 1 /H 1 /F /DCT ID \xff\xd8\xff EI Q")
	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if frags[0].Image.Name != "inline-1.jpg" {
		t.Errorf("Name = %q", frags[0].Image.Name)
	}
	if frags[0].Image.Size() != 3 {
		t.Errorf("Size = %d, want 3", frags[0].Image.Size())
	}
}

func TestInterpreter_EmptyContent(t *testing.T) {
	frags := interpret("")
	if frags == nil || len(frags) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", frags)
	}
}

func TestInterpreter_ToUnicodeFonts(t *testing.T) {
	// glyph ids with a non-zero high byte, as subset CID fonts emit them
	cmap, err := font.ParseCMap([]byte("1 begincodespacerange <0000> <FFFF> endcodespacerange\n" +
		"3 beginbfchar <0124> <0054> <0131> <006F> <0200> <0020> endbfchar\n"))
	if err != nil {
		t.Fatal(err)
	}
	fonts := map[string]pageFont{"F2": {toUnicode: cmap, codeBytes: 2}}

	ops := parseContent([]byte("BT /F2 10 Tf 72 700 Td <012401310200> Tj ET " +
		"BT /F1 10 Tf 72 680 Td <0048> Tj ET"))
	frags := newInterpreter(fonts, nil, nil).run(ops)

	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want 2", len(frags))
	}
	if frags[0].Text != "To " {
		t.Errorf("mapped font text = %q, want %q", frags[0].Text, "To ")
	}
	// three codes, not six bytes
	if w := frags[0].BBox.Right() - frags[0].BBox.Left(); !approx(w, 3*defaultGlyphWidth*10) {
		t.Errorf("width = %v, want %v", w, 3*defaultGlyphWidth*10)
	}
	if frags[1].Text != "H" {
		t.Errorf("unmapped font text = %q, want %q", frags[1].Text, "H")
	}
}
