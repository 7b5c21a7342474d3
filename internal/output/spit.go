// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"

	"github.com/staranto/randuser/internal/attrs"
	"github.com/staranto/randuser/internal/config"
	"github.com/staranto/randuser/internal/user"
)

// Formats are the accepted values of --output.
var Formats = []string{"text", "json", "yaml", "raw"}

// Palette holds the table colors.
type Palette struct {
	Title string
	Even  string
	Odd   string
}

// DefaultPalette matches the colors used when nothing is configured.
var DefaultPalette = Palette{Title: "#f6be00", Even: "#ffffff", Odd: "#00c8f0"}

// PaletteFromConfig reads colors.title, colors.even and colors.odd.
func PaletteFromConfig() Palette {
	p := DefaultPalette
	p.Title, _ = config.GetString("colors.title", DefaultPalette.Title)
	p.Even, _ = config.GetString("colors.even", DefaultPalette.Even)
	p.Odd, _ = config.GetString("colors.odd", DefaultPalette.Odd)
	return p
}

// Options controls text rendering.
type Options struct {
	Color   bool
	Titles  bool
	Padding int
	Palette Palette
}

// DefaultOptions returns no color, with titles and padding from config. Titles
// are on unless config says otherwise.
func DefaultOptions() Options {
	pad, _ := config.GetInt("padding", 1)
	titles, err := config.GetBool("titles", true)
	if err != nil {
		log.WithError(err).Warn("ignoring config titles")
		titles = true
	}
	return Options{Titles: titles, Padding: pad, Palette: DefaultPalette}
}

// TableString renders rows in a borderless table honoring color, titles and
// padding options.
func TableString(headers []string, rows [][]string, opts Options) string {
	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerStyle = headerStyle.Foreground(lipgloss.Color(opts.Palette.Title)).Bold(true)
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(opts.Palette.Even))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(opts.Palette.Odd))
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}

			return style
		}).
		Rows(rows...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	return t.String()
}

// Emit writes u to w in the given format. attrs select and title the fields
// for text, json and yaml; raw writes the whole document.
func Emit(w io.Writer, u *user.User, format string, al attrs.AttrList, opts Options) error {
	if u == nil {
		return fmt.Errorf("no user to emit")
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if format == "raw" {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}

	doc := gjson.ParseBytes(raw)
	included := al.Included()

	switch format {
	case "json":
		out := make(map[string]interface{}, len(included))
		for i := range included {
			out[included[i].OutputKey] = included[i].Transform(included[i].Extract(doc))
		}
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		// MapSlice keeps the attr order.
		out := make(yaml.MapSlice, 0, len(included))
		for i := range included {
			out = append(out, yaml.MapItem{
				Key:   included[i].OutputKey,
				Value: included[i].Transform(included[i].Extract(doc)),
			})
		}
		b, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "text", "":
		row := make([]string, 0, len(included))
		for i := range included {
			row = append(row, InterfaceToString(included[i].Transform(included[i].Extract(doc)), "-"))
		}
		_, err := fmt.Fprintln(w, TableString(al.Titles(), [][]string{row}, opts))
		return err
	default:
		return fmt.Errorf("unknown output format %q, must be one of %v", format, Formats)
	}
}

// DumpSchema writes the dotted attribute paths of typ, as usable with
// --attrs, one per line and sorted.
func DumpSchema(w io.Writer, typ reflect.Type) {
	paths := SchemaWalker("", typ)
	if len(paths) == 0 {
		log.Debugf("No tags found for type: %s", typ.Name())
		return
	}
	sort.Strings(paths)

	fmt.Fprintln(w, "Schema for", typ.Name(), "--")
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}

// SchemaWalker recursively walks a struct type collecting json tag paths.
func SchemaWalker(holder string, typ reflect.Type) []string {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	paths := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("json")
		if !ok {
			continue
		}
		name := strings.Split(tagValue, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if holder != "" {
			name = holder + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			paths = append(paths, SchemaWalker(name, field.Type)...)
			continue
		}
		paths = append(paths, name)
	}

	return paths
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// gjson hands every number back as a float64, and the only numbers in a
		// user are integers.
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
