package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/model"
)

// DefaultPreviewLimit caps the elements returned by transcribe_preview
const DefaultPreviewLimit = 200

// RegisterMCP registers the transcribe tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerDocumentTool(srv)
	p.registerPreviewTool(srv)
	p.registerFormatsTool(srv)
	if p.history != nil {
		p.registerHistoryTool(srv)
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var pagesProperty = map[string]any{
	"type":        "array",
	"items":       map[string]any{"type": "integer", "minimum": 1},
	"description": "Pages to read (1-indexed, in output order). Omit for all pages.",
}

// addTool registers handler on srv. Arguments are decoded into a fresh In;
// errors from decoding or the handler become tool errors and the result is
// returned as JSON text.
func addTool[In any](srv *mcp.Server, tool *mcp.Tool, handler func(context.Context, *In) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := new(In)
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, in); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := handler(ctx, in)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- document ---

type documentReq struct {
	Path   string `json:"path"`
	Output string `json:"output"`
	Format string `json:"format"`
	Pages  []int  `json:"pages"`
}

func (p *Pipeline) registerDocumentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "transcribe_document",
		Description: "Transcribe a PDF into a DOCX, HTML, Markdown or text file. Returns the output path and element counts.",
		InputSchema: inputSchema(map[string]any{
			"path":   map[string]any{"type": "string", "description": "PDF file to transcribe"},
			"output": map[string]any{"type": "string", "description": "Output file (default from configuration)"},
			"format": map[string]any{"type": "string", "description": "docx, html, markdown or text (default from the output extension)"},
			"pages":  pagesProperty,
		}, []string{"path"}),
	}

	addTool(srv, tool, func(ctx context.Context, r *documentReq) (any, error) {
		if r.Path == "" {
			return nil, errors.New("path is required")
		}
		return p.Convert(ctx, Request{
			Source: r.Path,
			Output: r.Output,
			Format: r.Format,
			Pages:  r.Pages,
			Origin: OriginMCP,
		})
	})
}

// --- preview ---

type previewReq struct {
	Path  string `json:"path"`
	Pages []int  `json:"pages"`
	Limit int    `json:"limit"`
}

// PreviewElement is the JSON form of a document element
type PreviewElement struct {
	Type  string     `json:"type"`
	Page  int        `json:"page"`
	Text  string     `json:"text,omitempty"`
	Cells int        `json:"cells,omitempty"`
	Image string     `json:"image,omitempty"`
	BBox  [4]float64 `json:"bbox"` // x, y, width, height
}

// Preview is the transcribe_preview response
type Preview struct {
	Source    string           `json:"source"`
	Pages     int              `json:"pages"`
	Total     int              `json:"total"`
	Truncated bool             `json:"truncated,omitempty"`
	Elements  []PreviewElement `json:"elements"`
}

// NewPreview lists the first limit elements of doc (limit <= 0 lists all)
func NewPreview(doc *model.Document, limit int) Preview {
	n := doc.Len()
	if limit > 0 && n > limit {
		n = limit
	}

	pv := Preview{
		Source:    doc.Source,
		Pages:     doc.PageCount,
		Total:     doc.Len(),
		Truncated: n < doc.Len(),
		Elements:  make([]PreviewElement, 0, n),
	}
	for _, el := range doc.Elements[:n] {
		bb := el.BoundingBox()
		pe := PreviewElement{
			Type: el.Type().String(),
			Page: el.PageNumber(),
			BBox: [4]float64{bb.X, bb.Y, bb.Width, bb.Height},
		}
		switch e := el.(type) {
		case *model.Text:
			pe.Text = e.Content
		case *model.TableRow:
			pe.Text = e.Content
			pe.Cells = e.Cells
		case *model.Image:
			pe.Image = e.Name()
		}
		pv.Elements = append(pv.Elements, pe)
	}
	return pv
}

func (p *Pipeline) registerPreviewTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "transcribe_preview",
		Description: "List the reconstructed elements of a PDF (text, table rows, images) in output order without writing a file.",
		InputSchema: inputSchema(map[string]any{
			"path":  map[string]any{"type": "string", "description": "PDF file to read"},
			"pages": pagesProperty,
			"limit": map[string]any{"type": "integer", "description": fmt.Sprintf("Maximum elements to return (default %d)", DefaultPreviewLimit)},
		}, []string{"path"}),
	}

	addTool(srv, tool, func(ctx context.Context, r *previewReq) (any, error) {
		if r.Path == "" {
			return nil, errors.New("path is required")
		}
		doc, err := p.Preview(ctx, r.Path, r.Pages)
		if err != nil {
			return nil, err
		}
		limit := r.Limit
		if limit <= 0 {
			limit = DefaultPreviewLimit
		}
		return NewPreview(doc, limit), nil
	})
}

// --- formats ---

// FormatInfo describes an output format
type FormatInfo struct {
	Selector    string `json:"selector"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
}

// OperationInfo describes an operation
type OperationInfo struct {
	Selector  string `json:"selector"`
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
}

// Catalog is the list of formats and operations
type Catalog struct {
	Formats    []FormatInfo    `json:"formats"`
	Operations []OperationInfo `json:"operations"`
}

// SupportedSelections returns every output format and operation in menu
// order
func SupportedSelections() Catalog {
	var c Catalog
	for i, f := range format.Formats {
		c.Formats = append(c.Formats, FormatInfo{
			Selector:    fmt.Sprint(i + 1),
			Name:        f.String(),
			Extension:   f.Extension(),
			ContentType: f.ContentType(),
		})
	}
	for i, op := range format.Operations {
		c.Operations = append(c.Operations, OperationInfo{
			Selector:  fmt.Sprint(i + 1),
			Name:      op.String(),
			Supported: op.Supported(),
		})
	}
	return c
}

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "transcribe_formats",
		Description: "List the supported output formats and operations.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(_ context.Context, _ *struct{}) (any, error) {
		return SupportedSelections(), nil
	})
}

// --- history ---

type historyReq struct {
	Limit int `json:"limit"`
}

func (p *Pipeline) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "transcribe_history",
		Description: "List recent transcription runs, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum runs to return (default 20)"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, r *historyReq) (any, error) {
		runs, err := p.history.List(ctx, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": runs}, nil
	})
}
