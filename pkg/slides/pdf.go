package slides

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var errEmptyPDFContent = errors.New("pdf content is empty")

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// normalizeOneLine flattens extracted page text onto a single line by
// collapsing whitespace runs into single spaces.
func normalizeOneLine(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// pageLines extracts one normalized text line per PDF page, in page order.
// Pages that cannot be read contribute an empty line so that indexes still
// match page numbers.
func pageLines(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, errEmptyPDFContent
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	lines := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			lines = append(lines, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, normalizeOneLine(text))
	}
	return lines, nil
}

// pageMetrics summarizes how much text per-page extraction recovered.
type pageMetrics struct {
	Pages         int
	NonEmptyPages int
	TotalChars    int
}

func (m pageMetrics) Coverage() float64 {
	if m.Pages == 0 {
		return 0
	}
	return float64(m.NonEmptyPages) / float64(m.Pages)
}

func measure(lines []string) pageMetrics {
	m := pageMetrics{Pages: len(lines)}
	for _, line := range lines {
		if line == "" {
			continue
		}
		m.NonEmptyPages++
		m.TotalChars += utf8.RuneCountInString(line)
	}
	return m
}
