package xlsxport

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportTemplate is the declarative YAML form of an export configuration, so
// report layouts can live next to the data they describe instead of in code.
type ExportTemplate struct {
	Sheet        string   `yaml:"sheet"`
	Title        string   `yaml:"title"`
	StartCell    string   `yaml:"start_cell"`
	Append       bool     `yaml:"append"`
	ClearSheet   bool     `yaml:"clear_sheet"`
	NoHeader     bool     `yaml:"no_header"`
	Columns      []string `yaml:"columns"`
	Exclude      []string `yaml:"exclude"`
	NoConversion []string `yaml:"no_conversion"`
	NumberFormat string   `yaml:"number_format"`
	Locale       string   `yaml:"locale"`

	NamedRange string `yaml:"named_range"`
	Table      *struct {
		Name  string `yaml:"name"`
		Style string `yaml:"style"`
	} `yaml:"table"`
	AutoFilter        bool    `yaml:"auto_filter"`
	FreezeTopRow      bool    `yaml:"freeze_top_row"`
	FreezeFirstColumn bool    `yaml:"freeze_first_column"`
	FreezePane        string  `yaml:"freeze_pane"`
	BoldTopRow        bool    `yaml:"bold_top_row"`
	AutoSize          bool    `yaml:"auto_size"`
	MaxColumnWidth    float64 `yaml:"max_column_width"`
	Hide              bool    `yaml:"hide"`
	Password          string  `yaml:"password"`

	PivotTables []PivotTemplate `yaml:"pivot_tables"`
	Charts      []ChartTemplate `yaml:"charts"`
	Conditional []CondTemplate  `yaml:"conditional_formats"`
}

// PivotTemplate mirrors PivotTableDef for YAML.
type PivotTemplate struct {
	Name    string            `yaml:"name"`
	Sheet   string            `yaml:"sheet"`
	Source  string            `yaml:"source"`
	Rows    []string          `yaml:"rows"`
	Columns []string          `yaml:"columns"`
	Filter  []string          `yaml:"filter"`
	Data    map[string]string `yaml:"data"`
}

// ChartTemplate mirrors ChartDef for YAML.
type ChartTemplate struct {
	Type   string `yaml:"type"`
	Title  string `yaml:"title"`
	Anchor string `yaml:"anchor"`
}

// CondTemplate is one conditional-formatting rule in YAML form.
type CondTemplate struct {
	Range     string `yaml:"range"`
	Type      string `yaml:"type"`
	Criteria  string `yaml:"criteria"`
	Value     string `yaml:"value"`
	FillColor string `yaml:"fill"`
	FontColor string `yaml:"font_color"`
}

// LoadTemplate reads an export template from a YAML file.
func LoadTemplate(path string) (*ExportTemplate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template %s: %w", path, err)
	}
	defer file.Close()
	return LoadTemplateFromReader(file)
}

// LoadTemplateFromReader decodes and validates a template.
func LoadTemplateFromReader(r io.Reader) (*ExportTemplate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	var t ExportTemplate
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTemplateFromString decodes a template from an inline YAML document.
func LoadTemplateFromString(doc string) (*ExportTemplate, error) {
	return LoadTemplateFromReader(strings.NewReader(doc))
}

// Validate rejects templates the export itself would reject, before any
// workbook is touched.
func (t *ExportTemplate) Validate() error {
	if t.Append && t.ClearSheet {
		return fmt.Errorf("%w: template requests append and clear_sheet together", ErrConfigConflict)
	}
	for i, p := range t.PivotTables {
		if p.Name == "" {
			return fmt.Errorf("template pivot_tables[%d]: name is required", i)
		}
		if len(p.Rows) == 0 && len(p.Columns) == 0 {
			return fmt.Errorf("template pivot table %s: at least one row or column field is required", p.Name)
		}
	}
	for i, c := range t.Charts {
		if _, ok := chartTypes[c.Type]; !ok {
			return fmt.Errorf("template charts[%d]: unsupported type %q", i, c.Type)
		}
	}
	return nil
}

// Options lowers the template into the functional options Export consumes.
func (t *ExportTemplate) Options() []Option {
	var opts []Option
	add := func(cond bool, o Option) {
		if cond {
			opts = append(opts, o)
		}
	}

	add(t.Sheet != "", WithSheetName(t.Sheet))
	add(t.Title != "", WithTitle(t.Title))
	add(t.StartCell != "", WithStartCell(t.StartCell))
	add(t.Append, WithAppend())
	add(t.ClearSheet, WithClearSheet())
	add(t.NoHeader, WithNoHeader())
	add(len(t.Columns) > 0, WithColumns(t.Columns...))
	add(len(t.Exclude) > 0, WithExclude(t.Exclude...))
	add(len(t.NoConversion) > 0, WithNoNumberConversion(t.NoConversion...))
	add(t.NumberFormat != "", WithNumberFormat(t.NumberFormat))
	add(t.Locale != "", WithLocale(t.Locale))
	add(t.NamedRange != "", WithNamedRange(t.NamedRange))
	if t.Table != nil {
		add(true, WithTable(t.Table.Name, t.Table.Style))
	}
	add(t.AutoFilter, WithAutoFilter())
	add(t.FreezeTopRow && !t.FreezeFirstColumn, WithFreezeTopRow())
	add(t.FreezeFirstColumn && !t.FreezeTopRow, WithFreezeFirstColumn())
	add(t.FreezeTopRow && t.FreezeFirstColumn, WithFreezeTopRowFirstColumn())
	add(t.FreezePane != "", WithFreezePane(t.FreezePane))
	add(t.BoldTopRow, WithBoldTopRow())
	add(t.AutoSize, WithAutoSize())
	add(t.MaxColumnWidth > 0, WithMaxColumnWidth(t.MaxColumnWidth))
	add(t.Hide, WithHideSheet())
	add(t.Password != "", WithPassword(t.Password))

	for _, p := range t.PivotTables {
		def := &PivotTableDef{
			Name:        p.Name,
			TargetSheet: p.Sheet,
			SourceRange: p.Source,
			Rows:        p.Rows,
			Columns:     p.Columns,
			Filter:      p.Filter,
			Data:        p.Data,
			GrandTotals: true,
		}
		opts = append(opts, WithPivotTable(def))
	}
	for _, c := range t.Charts {
		opts = append(opts, WithChart(&ChartDef{Type: c.Type, Title: c.Title, Anchor: c.Anchor}))
	}
	for _, c := range t.Conditional {
		rule := ConditionalFormat{
			Range:    c.Range,
			Type:     c.Type,
			Criteria: c.Criteria,
			Value:    c.Value,
		}
		if c.FillColor != "" || c.FontColor != "" {
			rule.Style = &CellStyle{FillColor: c.FillColor, FontColor: c.FontColor}
		}
		opts = append(opts, WithConditionalFormat(rule))
	}
	return opts
}
