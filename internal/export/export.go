// Package export renders reports as CSV, Markdown and HTML documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/summarizer"
)

// Format is an export format
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name. An empty name means CSV.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown export format %q", name))
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension of f, without the dot
func (f Format) Extension() string {
	return string(f)
}

// Write renders rep in format f to w
func Write(w io.Writer, rep *report.Report, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rep.Result)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(rep))
		return err
	}
	return errors.InvalidInput(fmt.Sprintf("unknown export format %q", f))
}

// WriteCSV writes every chart point as a series,label,value row, series in
// display order.
func WriteCSV(w io.Writer, result summarizer.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"series", "label", "value"}); err != nil {
		return err
	}
	for _, name := range summarizer.AllSeries {
		for _, p := range result.Series(name) {
			if err := cw.Write([]string{string(name), p.Label, formatValue(p.Value)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var seriesTitles = map[summarizer.SeriesName]string{
	summarizer.SeriesRevenue:      "Revenue by month",
	summarizer.SeriesSales:        "Sales by month",
	summarizer.SeriesProducts:     "Top products",
	summarizer.SeriesDistribution: "Distribution",
	summarizer.SeriesCustomers:    "Customer segments",
}

// Markdown renders rep as a Markdown document. Empty series are left out.
func Markdown(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(rep.Name))
	if !rep.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", rep.CreatedAt.UTC().Format("January 2, 2006 15:04 MST"))
	}
	fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(rep.Result.Summary))

	b.WriteString("## Key metrics\n\n")
	b.WriteString("| Metric | Value | Change |\n|---|---|---|\n")
	for _, m := range rep.Result.KeyMetrics {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(m.Label), escapeCell(m.Value), escapeCell(m.Change))
	}
	b.WriteString("\n")

	if len(rep.Result.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range rep.Result.Recommendations {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(r))
		}
		b.WriteString("\n")
	}

	for _, name := range summarizer.AllSeries {
		points := rep.Result.Series(name)
		if len(points) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", seriesTitles[name])
		b.WriteString("| Label | Value |\n|---|---:|\n")
		for _, p := range points {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(p.Label), humanize.Commaf(p.Value))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the Markdown document of rep as an HTML fragment.
func HTML(rep *report.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(Markdown(rep)))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.Render(doc, renderer)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "<", "&lt;", ">", "&gt;", "[", `\[`, "]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeMarkdown(s), "|", `\|`)
}
