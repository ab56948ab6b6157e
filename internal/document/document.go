package document

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file extensions without an extractor.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrNoText is returned when a document yields no text at all.
var ErrNoText = errors.New("no text content found")

// Extractor reads the plain text of CV documents.
type Extractor struct {
	pdf    func(path string) (string, error)
	office func(path string) (string, error)
}

// NewExtractor returns an Extractor reading PDF natively and office formats
// through docconv.
func NewExtractor() *Extractor {
	return &Extractor{pdf: pdfText, office: officeText}
}

// Supported reports whether path has an extension ExtractText handles.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".doc", ".odt", ".rtf", ".txt":
		return true
	}
	return false
}

// ExtractText returns the text of the document at path.
func (e *Extractor) ExtractText(path string) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = e.pdf(path)
	case ".docx", ".doc", ".odt", ".rtf":
		text, err = e.office(path)
	case ".txt":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), ErrNoText)
	}
	return text, nil
}

// pdfText concatenates pages in order, one line per text row. Pages whose
// content cannot be laid out fall back to the raw content stream text.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		texts, err := pageTexts(page)
		if err != nil || len(texts) == 0 {
			text, err := page.GetPlainText(nil)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", i, err)
			}
			b.WriteString(text)
			b.WriteString("\n")
			continue
		}

		for _, row := range textRows(texts) {
			b.WriteString(row)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// pageTexts returns the positioned glyphs of page. The reader panics on
// malformed content streams.
func pageTexts(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("read page content: %v", r)
		}
	}()
	return page.Content().Text, nil
}

// textRows groups glyphs sharing a baseline into lines, top to bottom, and
// orders each line left to right. A space is inserted where the horizontal
// gap between two glyphs is wider than a fraction of the font size.
func textRows(texts []pdf.Text) []string {
	glyphs := make([]pdf.Text, len(texts))
	copy(glyphs, texts)
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].Y > glyphs[j].Y })

	var rows [][]pdf.Text
	var rowY float64
	for _, g := range glyphs {
		tolerance := math.Max(g.FontSize*0.5, 2)
		if len(rows) == 0 || math.Abs(rowY-g.Y) > tolerance {
			rows = append(rows, nil)
			rowY = g.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], g)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var line strings.Builder
		for k, g := range row {
			if k > 0 {
				prev := row[k-1]
				gap := g.X - (prev.X + prev.W)
				if prev.W > 0 && gap > math.Max(g.FontSize*0.2, 1) && !endsWithSpace(prev.S) && !startsWithSpace(g.S) {
					line.WriteByte(' ')
				}
			}
			line.WriteString(g.S)
		}
		lines = append(lines, line.String())
	}
	return lines
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRightFunc(s, unicode.IsSpace) != s
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeftFunc(s, unicode.IsSpace) != s
}

func officeText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}
