package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/JonMunkholm/datagrid/internal/core"
)

const (
	// Placeholder is shown for missing values.
	Placeholder = "-"

	// DefaultTruncate is the display length of plain strings.
	DefaultTruncate = 15

	dateDisplayLayout = "02/01/2006, 15:04"
)

// Formatter renders cell values for display. It never changes stored values.
type Formatter struct {
	printer  *message.Printer
	currency currency.Unit
	location *time.Location
	truncate int
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithLanguage sets the locale used for number grouping.
func WithLanguage(tag language.Tag) FormatterOption {
	return func(f *Formatter) { f.printer = message.NewPrinter(tag) }
}

// WithCurrency sets the currency for price and total columns.
func WithCurrency(unit currency.Unit) FormatterOption {
	return func(f *Formatter) { f.currency = unit }
}

// WithLocation sets the time zone dates are shown in.
func WithLocation(loc *time.Location) FormatterOption {
	return func(f *Formatter) { f.location = loc }
}

// WithTruncate sets the maximum display length of plain strings.
func WithTruncate(n int) FormatterOption {
	return func(f *Formatter) { f.truncate = n }
}

// ParseFormatterOptions builds options from a BCP 47 locale, an ISO 4217
// currency code and an IANA time zone. Empty arguments keep the defaults.
func ParseFormatterOptions(locale, currencyCode, tz string) ([]FormatterOption, error) {
	var opts []FormatterOption
	if locale != "" {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		opts = append(opts, WithLanguage(tag))
	}
	if currencyCode != "" {
		unit, err := currency.ParseISO(currencyCode)
		if err != nil {
			return nil, fmt.Errorf("currency %q: %w", currencyCode, err)
		}
		opts = append(opts, WithCurrency(unit))
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("time zone %q: %w", tz, err)
		}
		opts = append(opts, WithLocation(loc))
	}
	return opts, nil
}

// NewFormatter returns a Formatter for US English, USD and UTC unless
// overridden.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		printer:  message.NewPrinter(language.AmericanEnglish),
		currency: currency.USD,
		location: time.UTC,
		truncate: DefaultTruncate,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Cell formats the value of col in row. A pending value for the column wins
// over the stored one.
func (f *Formatter) Cell(col core.Column, row core.Row, pending map[string]any) string {
	if v, ok := pending[col.Key]; ok {
		return f.Value(col, v)
	}
	return f.Value(col, core.GetPath(row, col.Key))
}

// Value formats a single value for col.
func (f *Formatter) Value(col core.Column, v any) string {
	if v == nil {
		return Placeholder
	}
	if col.Type == core.ColumnSelect {
		return rawString(v)
	}

	if t, ok := f.asDate(col, v); ok {
		return t.In(f.location).Format(dateDisplayLayout)
	}

	if n, ok := asNumber(v); ok {
		if isMoneyKey(col.Key) {
			return f.Currency(n)
		}
		return f.Number(n)
	}

	switch x := v.(type) {
	case map[string]any, core.Row, []any:
		return flatten(x)
	case bool:
		return strconv.FormatBool(x)
	}

	return Truncate(rawString(v), f.truncate)
}

// Currency renders n as an amount in the formatter's currency: "$19.99".
func (f *Formatter) Currency(n float64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	symbol := f.printer.Sprint(currency.Symbol(f.currency))
	return sign + symbol + f.printer.Sprint(number.Decimal(n, number.Scale(2)))
}

// Number renders n with grouping and at most three fraction digits.
func (f *Formatter) Number(n float64) string {
	return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}

func (f *Formatter) asDate(col core.Column, v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		if x == "" || isDigits(x) {
			return time.Time{}, false
		}
		return core.ParseDate(x)
	}
	// Numbers on date columns are epoch milliseconds.
	if strings.Contains(strings.ToLower(col.Key), "date") {
		if n, ok := asNumber(v); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return time.UnixMilli(int64(n)), true
		}
	}
	return time.Time{}, false
}

func isMoneyKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "price") || strings.Contains(k, "total")
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func rawString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Truncate shortens s to n runes followed by "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// flatten renders nested objects and arrays on one line.
func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case core.Row:
		return flattenMap(x)
	case map[string]any:
		return flattenMap(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, flattenItem(item))
		}
		return strings.Join(parts, ", ")
	}
	return rawString(v)
}

// flattenItem renders an array element. Line items read
// "description (qty × price)".
func flattenItem(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return flatten(v)
	}
	desc, hasDesc := m["description"]
	qty, hasQty := m["quantity"]
	price, hasPrice := m["price"]
	if hasDesc && hasQty && hasPrice {
		return fmt.Sprintf("%s (%s × %s)", flatten(desc), flatten(qty), flatten(price))
	}
	return flattenMap(m)
}

func flattenMap(m map[string]any) string {
	if name, ok := m["name"]; ok {
		if email, ok := m["email"]; ok && len(m) == 2 {
			return fmt.Sprintf("%s (%s)", flatten(name), flatten(email))
		}
	}
	if len(m) == 1 {
		for _, v := range m {
			return flatten(v)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+flatten(m[k]))
	}
	return strings.Join(parts, " | ")
}
