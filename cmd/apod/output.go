package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"apod-feed/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// useColors reports whether status lines are colored. NO_COLOR and TERM=dumb win
// over the terminal check done by fatih/color.
func useColors(disabled bool) bool {
	if disabled {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return !color.NoColor
}

// printer writes status lines: results to out, warnings and errors to err.
type printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

func newPrinter(out, err io.Writer, colors bool) *printer {
	return &printer{out: out, err: err, useColors: colors}
}

func (p *printer) Success(format string, args ...any) {
	p.line(p.out, color.FgGreen, "✓ ", format, args...)
}

func (p *printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", format, args...)
}

func (p *printer) Warning(format string, args ...any) {
	p.line(p.err, color.FgYellow, "⚠ ", format, args...)
}

func (p *printer) Error(format string, args ...any) {
	p.line(p.err, color.FgRed, "✗ ", format, args...)
}

// Bold renders text in bold when colors are enabled.
func (p *printer) Bold(text string) string {
	if !p.useColors {
		return text
	}
	c := color.New(color.Bold)
	c.EnableColor()
	return c.Sprint(text)
}

func (p *printer) line(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	if !p.useColors {
		_, _ = fmt.Fprintf(w, prefix+format+"\n", args...)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	_, _ = c.Fprintf(w, prefix+format+"\n", args...)
}

// entryView is the serialized form of an entry for json and yaml output.
type entryView struct {
	Date      string `json:"date" yaml:"date"`
	Title     string `json:"title" yaml:"title"`
	PageURL   string `json:"page_url" yaml:"page_url"`
	ImageURL  string `json:"image_url" yaml:"image_url"`
	Thumbnail string `json:"thumbnail" yaml:"thumbnail"`
}

type listView struct {
	ThumbnailSize int         `json:"thumbnail_size" yaml:"thumbnail_size"`
	Entries       []entryView `json:"entries" yaml:"entries"`
}

func newListView(entries []entity.Entry, thumbnailSize int) listView {
	v := listView{ThumbnailSize: thumbnailSize, Entries: make([]entryView, 0, len(entries))}
	for _, e := range entries {
		v.Entries = append(v.Entries, entryView{
			Date:      e.Date.Format(entity.InputLayout),
			Title:     e.Title,
			PageURL:   e.PageURL,
			ImageURL:  e.ImageURL,
			Thumbnail: e.ThumbnailLocalPath,
		})
	}
	return v
}

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return usagef("invalid output format %q: must be table, json, or yaml", format)
	}
}

func renderEntries(w io.Writer, format string, view listView) error {
	switch format {
	case formatJSON:
		return writeJSON(w, view)
	case formatYAML:
		return writeYAML(w, view)
	default:
		rows := make([][]string, 0, len(view.Entries))
		for _, e := range view.Entries {
			rows = append(rows, []string{e.Date, e.Title, e.Thumbnail, e.ImageURL})
		}
		renderTable(w, []string{"DATE", "TITLE", "THUMBNAIL", "IMAGE"}, rows)
		return nil
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	table.Bulk(rows)
	table.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func itoa(n int) string { return strconv.Itoa(n) }
