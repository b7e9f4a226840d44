package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/ethos-finder/ethos/internal/lookup"
)

// Modes accepted by New.
var Modes = []string{"json", "yaml", "plain", "rich"}

// Formatter is the interface for output formatting
type Formatter interface {
	Print(data any) error
	PrintList(items any, columns []Column) error
	PrintResult(res lookup.Result) error
	PrintError(err error)
	PrintHint(msg string)
}

// Column defines a column for table/list output
type Column struct {
	Name  string // Display name
	Key   string // Struct field name or map key
	Width int    // Width for rich mode (0 = auto)
}

// New creates a formatter for the specified mode writing to stdout/stderr
func New(mode string) Formatter {
	return NewWithWriters(mode, os.Stdout, os.Stderr)
}

// NewWithWriters creates a formatter writing results to out and diagnostics to errOut
func NewWithWriters(mode string, out, errOut io.Writer) Formatter {
	b := base{out: out, errOut: errOut}
	switch mode {
	case "json":
		return &jsonFormatter{base: b}
	case "yaml":
		return &yamlFormatter{base: b}
	case "rich":
		return &richFormatter{base: b, profile: termenv.ColorProfile()}
	default:
		return &plainFormatter{base: b}
	}
}

// NewJSON creates a JSON formatter with optional results-only mode
func NewJSON(resultsOnly bool) Formatter {
	return &jsonFormatter{base: base{out: os.Stdout, errOut: os.Stderr}, resultsOnly: resultsOnly}
}

type base struct {
	out    io.Writer
	errOut io.Writer
}

// envelope wraps a list with its count unless resultsOnly is set.
func envelope(items any, resultsOnly bool) any {
	if resultsOnly {
		return items
	}
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	count := 0
	if v.Kind() == reflect.Slice {
		count = v.Len()
	}

	return map[string]any{
		"data":  items,
		"count": count,
	}
}

// jsonFormatter outputs JSON to stdout
type jsonFormatter struct {
	base
	resultsOnly bool
}

func (f *jsonFormatter) Print(data any) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *jsonFormatter) PrintList(items any, columns []Column) error {
	return f.Print(envelope(items, f.resultsOnly))
}

func (f *jsonFormatter) PrintResult(res lookup.Result) error {
	return f.Print(res)
}

func (f *jsonFormatter) PrintError(err error) {
	enc := json.NewEncoder(f.errOut)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]string{"error": err.Error()})
}

func (f *jsonFormatter) PrintHint(msg string) {
	// hints are for humans
}

// yamlFormatter outputs YAML documents to stdout
type yamlFormatter struct {
	base
}

func (f *yamlFormatter) Print(data any) error {
	enc := yaml.NewEncoder(f.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (f *yamlFormatter) PrintList(items any, columns []Column) error {
	return f.Print(envelope(items, false))
}

func (f *yamlFormatter) PrintResult(res lookup.Result) error {
	return f.Print(res)
}

func (f *yamlFormatter) PrintError(err error) {
	fmt.Fprintf(f.errOut, "error: %v\n", err)
}

func (f *yamlFormatter) PrintHint(msg string) {}

// cellValue extracts the column value from a struct field or map entry.
func cellValue(item reflect.Value, key string) string {
	if item.Kind() == reflect.Ptr {
		item = item.Elem()
	}
	switch item.Kind() {
	case reflect.Map:
		if v := item.MapIndex(reflect.ValueOf(key)); v.IsValid() {
			return fmt.Sprintf("%v", v.Interface())
		}
	case reflect.Struct:
		if v := item.FieldByName(key); v.IsValid() && v.CanInterface() {
			return fmt.Sprintf("%v", v.Interface())
		}
	}
	return ""
}

// listRows converts a slice into rows keyed by column key.
func listRows(items any, columns []Column) ([]map[string]string, error) {
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("PrintList requires a slice")
	}

	rows := make([]map[string]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			row[col.Key] = cellValue(v.Index(i), col.Key)
		}
		rows[i] = row
	}
	return rows, nil
}

// plainFormatter outputs tab-separated values
type plainFormatter struct {
	base
}

func (f *plainFormatter) Print(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			fmt.Fprintf(f.out, "%s\t%v\n", t.Field(i).Name, v.Field(i).Interface())
		}
		return nil
	}

	fmt.Fprintf(f.out, "%v\n", data)
	return nil
}

func (f *plainFormatter) PrintList(items any, columns []Column) error {
	rows, err := listRows(items, columns)
	if err != nil {
		return err
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	fmt.Fprintf(f.out, "%s\n", strings.Join(headers, "\t"))

	for _, row := range rows {
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = row[col.Key]
		}
		fmt.Fprintf(f.out, "%s\n", strings.Join(values, "\t"))
	}
	return nil
}

func (f *plainFormatter) PrintResult(res lookup.Result) error {
	fmt.Fprintf(f.out, "query\t%s\n", res.Query)
	fmt.Fprintf(f.out, "kind\t%s\n", res.Kind)
	if res.Method != "" {
		fmt.Fprintf(f.out, "method\t%s\n", res.Method)
	}
	for _, field := range res.Fields {
		fmt.Fprintf(f.out, "%s\t%s\t%s\n", field.Provider, field.Name, field.Value)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(f.out, "error\t%s\t%s\t%s\n", e.Provider, e.Kind, e.Message)
	}
	return nil
}

func (f *plainFormatter) PrintError(err error) {
	fmt.Fprintf(f.errOut, "error: %v\n", err)
}

func (f *plainFormatter) PrintHint(msg string) {
	fmt.Fprintf(f.errOut, "hint: %v\n", msg)
}

// richFormatter outputs styled content for terminal
type richFormatter struct {
	base
	profile termenv.Profile
}

var (
	keyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("8"))
)

// render applies style unless the terminal has no colour support.
func (f *richFormatter) render(style lipgloss.Style, s string) string {
	if f.profile == termenv.Ascii {
		return s
	}
	return style.Render(s)
}

func (f *richFormatter) Print(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			fmt.Fprintf(f.out, "%s: %s\n",
				f.render(keyStyle, t.Field(i).Name),
				f.render(valueStyle, fmt.Sprintf("%v", v.Field(i).Interface())),
			)
		}
		return nil
	}

	fmt.Fprintf(f.out, "%v\n", data)
	return nil
}

func (f *richFormatter) PrintList(items any, columns []Column) error {
	rows, err := listRows(items, columns)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(f.out, f.render(hintStyle, "(none)"))
		return nil
	}
	RenderTable(f.out, columns, rows)
	return nil
}

var resultColumns = []Column{
	{Name: "Provider", Key: "provider", Width: 24},
	{Name: "Field", Key: "name", Width: 32},
	{Name: "Value", Key: "value", Width: 80},
}

func (f *richFormatter) PrintResult(res lookup.Result) error {
	title := fmt.Sprintf("%s %s", res.Kind, res.Query)
	if res.Method != "" {
		title += " (" + res.Method + ")"
	}
	fmt.Fprintln(f.out, f.render(titleStyle, title))

	if len(res.Fields) == 0 {
		fmt.Fprintln(f.out, f.render(hintStyle, "no results"))
	} else {
		rows := make([]map[string]string, len(res.Fields))
		for i, field := range res.Fields {
			rows[i] = map[string]string{"provider": field.Provider, "name": field.Name, "value": field.Value}
		}
		RenderTable(f.out, resultColumns, rows)
	}

	for _, e := range res.Errors {
		fmt.Fprintln(f.out, f.render(errorStyle, fmt.Sprintf("%s [%s] %s", e.Provider, e.Kind, e.Message)))
	}
	fmt.Fprintln(f.out, f.render(hintStyle, fmt.Sprintf("%d fields from %d providers in %s", len(res.Fields), len(res.Providers()), res.Duration.Round(time.Millisecond))))
	return nil
}

func (f *richFormatter) PrintError(err error) {
	fmt.Fprintf(f.errOut, "%s\n", f.render(errorStyle, "error: "+err.Error()))
}

func (f *richFormatter) PrintHint(msg string) {
	fmt.Fprintf(f.errOut, "%s\n", f.render(hintStyle, "hint: "+msg))
}
