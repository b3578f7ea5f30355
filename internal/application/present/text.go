package present

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"\n", " ",
	"\r", "",
)

func escape(s string) string { return mdEscaper.Replace(s) }

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// Markdown renders the text form of a display model.
func Markdown(m DisplayModel) string {
	var b strings.Builder
	s := m.Summary

	fmt.Fprintf(&b, "## Bias analysis: %s\n\n", escape(s.Attribute))
	fmt.Fprintf(&b, "**Risk:** %s\n\n", s.RiskLabel)

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Rows | %d |\n", s.Rows)
	fmt.Fprintf(&b, "| Attribute type | %s |\n", escape(s.AttributeType))
	fmt.Fprintf(&b, "| Disparate impact | %s |\n", formatMetric(s.DisparateImpact))
	fmt.Fprintf(&b, "| Statistical parity difference | %s |\n\n", formatMetric(s.ParityDifference))

	if s.Incomplete {
		b.WriteString("_Some metrics were missing from the response._\n\n")
	}
	if s.Explanation != "" {
		b.WriteString(escape(s.Explanation))
		b.WriteString("\n\n")
	}

	if len(m.Chart.Categories) > 0 {
		b.WriteString("### Group distribution\n\n")
		for i, c := range m.Chart.Categories {
			fmt.Fprintf(&b, "- %s: %.2f%%\n", escape(c), m.Chart.Values[i])
		}
		b.WriteString("\n")
	}

	if len(s.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(&b, "- %s\n", escape(rec))
		}
		b.WriteString("\n")
	}

	b.WriteString("### Preview\n\n")
	if m.Table.Empty() {
		b.WriteString("No preview rows.\n")
		return b.String()
	}
	writeRow(&b, m.Table.Header)
	b.WriteString("|")
	for range m.Table.Header {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range m.Table.Rows {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []Cell) {
	b.WriteString("|")
	for _, c := range cells {
		v := escape(c.Value)
		if c.Emphasis && v != "" {
			v = "**" + v + "**"
		}
		fmt.Fprintf(b, " %s |", v)
	}
	b.WriteString("\n")
}

// HTML renders the markdown form as an HTML fragment. Raw HTML in values is dropped.
func HTML(m DisplayModel) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(Markdown(m)), p, renderer)
}
