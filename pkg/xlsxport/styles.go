package xlsxport

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellStyle is the style surface the engine exposes; it maps onto the
// collaborator's style model in buildStyle.
type CellStyle struct {
	FontName     string
	FontSize     float64
	FontBold     bool
	FontItalic   bool
	FontColor    string // hex, with or without leading "#"
	Underline    string // "single" or "double"
	FillColor    string
	Alignment    string // horizontal: left, center, right
	WrapText     bool
	NumberFormat string
}

// hyperlinkStyle is the fixed visual style for coerced hyperlink cells.
func hyperlinkStyle() *CellStyle {
	return &CellStyle{FontColor: "0563C1", Underline: "single"}
}

// boldStyle is applied to the top row by the bold-top-row finishing step.
func boldStyle() *CellStyle {
	return &CellStyle{FontBold: true}
}

// buildStyle registers a CellStyle with the workbook and returns its style
// ID. Styles are immutable once registered, so callers cache the IDs.
func buildStyle(f *excelize.File, cs *CellStyle) (int, error) {
	if cs == nil {
		return 0, nil
	}
	style := &excelize.Style{}
	if cs.FontName != "" || cs.FontSize > 0 || cs.FontBold || cs.FontItalic || cs.FontColor != "" || cs.Underline != "" {
		style.Font = &excelize.Font{
			Family:    cs.FontName,
			Size:      cs.FontSize,
			Bold:      cs.FontBold,
			Italic:    cs.FontItalic,
			Color:     strings.TrimPrefix(cs.FontColor, "#"),
			Underline: cs.Underline,
		}
	}
	if cs.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(cs.FillColor, "#")},
		}
	}
	if cs.Alignment != "" || cs.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: cs.Alignment,
			Vertical:   "center",
			WrapText:   cs.WrapText,
		}
	}
	if cs.NumberFormat != "" {
		fmtCopy := cs.NumberFormat
		style.CustomNumFmt = &fmtCopy
	}
	return f.NewStyle(style)
}

// buildConditionalStyle registers the differential variant used by
// conditional-formatting rules.
func buildConditionalStyle(f *excelize.File, cs *CellStyle) (int, error) {
	style := &excelize.Style{}
	if cs.FontBold || cs.FontItalic || cs.FontColor != "" {
		style.Font = &excelize.Font{
			Bold:   cs.FontBold,
			Italic: cs.FontItalic,
			Color:  strings.TrimPrefix(cs.FontColor, "#"),
		}
	}
	if cs.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(cs.FillColor, "#")},
		}
	}
	return f.NewConditionalStyle(style)
}

// styleCache memoizes workbook style IDs per number format so row emission
// does not register one style object per cell.
type styleCache struct {
	f      *excelize.File
	byFmt  map[string]int
	linkID int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, byFmt: make(map[string]int), linkID: -1}
}

func (c *styleCache) numberFormat(format string) (int, error) {
	if id, ok := c.byFmt[format]; ok {
		return id, nil
	}
	id, err := buildStyle(c.f, &CellStyle{NumberFormat: format})
	if err != nil {
		return 0, err
	}
	c.byFmt[format] = id
	return id, nil
}

func (c *styleCache) hyperlink() (int, error) {
	if c.linkID >= 0 {
		return c.linkID, nil
	}
	id, err := buildStyle(c.f, hyperlinkStyle())
	if err != nil {
		return 0, err
	}
	c.linkID = id
	return id, nil
}
