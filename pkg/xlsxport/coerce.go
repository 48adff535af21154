package xlsxport

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// CellType is the resolved output type of one cell.
type CellType int

const (
	TypeText CellType = iota
	TypeNumber
	TypeDate
	TypeFormula
	TypeHyperlink
)

func (t CellType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeFormula:
		return "formula"
	case TypeHyperlink:
		return "hyperlink"
	default:
		return "text"
	}
}

// CellWrite is the result of classifying one value: what goes into the cell
// and which number format, if any, overrides the sheet default. It is
// consumed immediately by the emitter.
type CellWrite struct {
	Value        interface{}
	Type         CellType
	NumberFormat string
}

// coerceContext carries the per-export flags the classification ladder needs.
// It is built once per export and shared by every classify call.
type coerceContext struct {
	numberFormat string
	customFormat bool // numberFormat differs from the sheet default
	noConvert    map[string]struct{}
	noConvertAll bool
	decimalSep   rune
	groupSep     rune
}

func newCoerceContext(cfg *ExportConfig) coerceContext {
	cc := coerceContext{
		numberFormat: cfg.NumberFormat,
		customFormat: cfg.NumberFormat != "" && cfg.NumberFormat != defaultSheetNumFmt,
		noConvert:    make(map[string]struct{}, len(cfg.NoConversion)),
	}
	for _, name := range cfg.NoConversion {
		if name == NoConversionAll {
			cc.noConvertAll = true
			continue
		}
		cc.noConvert[name] = struct{}{}
	}
	cc.decimalSep, cc.groupSep = separatorsFor(language.Make(cfg.Locale))
	return cc
}

func (cc coerceContext) numFmtOverride() string {
	if cc.customFormat {
		return cc.numberFormat
	}
	return ""
}

// classify decides what one value becomes in the output sheet. It is a pure
// function of (value, fieldName, context); the rules form a priority ladder
// where the first match wins. Unsupported shapes degrade to text rather than
// failing the export.
func classify(value interface{}, fieldName string, cc coerceContext) CellWrite {
	// Rule 1: dates keep a fixed short date-time format no matter what
	// number format was requested.
	if t, ok := asTime(value); ok {
		return CellWrite{Value: t, Type: TypeDate, NumberFormat: dateTimeNumFmt}
	}

	// Rule 2: already-numeric values pass through, picking up the requested
	// format only when it differs from the sheet default.
	if n, ok := asNumber(value); ok {
		return CellWrite{Value: n, Type: TypeNumber, NumberFormat: cc.numFmtOverride()}
	}

	text := stringify(value)

	// Rule 3: fields exempt from conversion stay verbatim text.
	if cc.noConvertAll {
		return CellWrite{Value: text, Type: TypeText}
	}
	if _, ok := cc.noConvert[fieldName]; ok {
		return CellWrite{Value: text, Type: TypeText}
	}

	// Rule 4: leading "=" marks a formula expression; it is stored, not
	// evaluated.
	if strings.HasPrefix(text, "=") {
		return CellWrite{Value: strings.TrimPrefix(text, "="), Type: TypeFormula}
	}

	// Rule 5: absolute URIs become hyperlinks displaying the URI itself.
	if isAbsoluteURI(text) {
		return CellWrite{Value: text, Type: TypeHyperlink}
	}

	// Rule 6: locale-aware numeric parse, falling back to verbatim text.
	if f, ok := parseLocalizedNumber(text, cc.decimalSep, cc.groupSep); ok {
		return CellWrite{Value: f, Type: TypeNumber, NumberFormat: cc.numFmtOverride()}
	}
	return CellWrite{Value: text, Type: TypeText}
}

func asTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	}
	return time.Time{}, false
}

// asNumber reports whether the value is natively numeric. Booleans count as
// numbers (written as 1/0) so that a requested number format applies to them
// uniformly.
func asNumber(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return nil, false
}

func stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case interface{ String() string }:
		return v.String()
	}
	return defaultString(value)
}

// isAbsoluteURI accepts only the link schemes the output format renders as
// clickable cells. Bare words and Windows drive paths must stay text.
func isAbsoluteURI(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp", "ftps", "file":
		return u.Host != "" || u.Scheme == "file"
	case "mailto":
		return u.Opaque != ""
	}
	return false
}

// parseLocalizedNumber parses text using the export locale's separators:
// group separators are dropped, the decimal separator maps to ".".
func parseLocalizedNumber(s string, decimalSep, groupSep rune) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case groupSep:
			// dropped; ParseFloat rejects anything malformed that remains
		case decimalSep:
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// separatorsFor maps a language tag to its decimal and group separators.
// Only the base language matters here; regional variants agree on the
// separator pair for the languages we distinguish.
func separatorsFor(tag language.Tag) (decimal, group rune) {
	base, _ := tag.Base()
	switch base.String() {
	case "de", "es", "it", "nl", "pt", "tr", "da", "el", "id", "ro", "sl", "hr":
		return ',', '.'
	case "fr", "ru", "pl", "cs", "sk", "fi", "sv", "nb", "no", "uk", "hu", "lv", "lt", "et":
		return ',', ' '
	default:
		return '.', ','
	}
}
