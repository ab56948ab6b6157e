package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/spigell/talent-suite/internal/feedback"
)

// Disclaimer opens every report.
const Disclaimer = "Il report di seguito, e le analisi che in esso sono sintetizzate, si basano sul contenuto del materiale di candidatura unito all'analisi della risoluzione del Case, effettuata durante apposito colloquio virtuale."

// Section titles in the order they appear.
const (
	TitleProfile   = "Sintesi del Profilo"
	TitleCV        = "Esito Analisi CV"
	TitleInterview = "Esito Colloquio"
	TitlePathway   = "Percorso di Upskilling Suggerito"
	TitleBenchmark = "Benchmark di Mercato"

	pathwayIntro = "Per supportare la tua crescita, abbiamo delineato un possibile percorso formativo basato sulle aree di miglioramento identificate:"
)

const (
	margin     = 25.4
	lineHeight = 5.5
	font       = "Helvetica"
)

var (
	navy = [3]int{0, 0, 128}
	gray = [3]int{128, 128, 128}
	blue = [3]int{0, 0, 255}
)

// Renderer writes feedback reports as PDF.
type Renderer struct {
	// Now returns the report date.
	Now func() time.Time
	// Compress enables stream compression.
	Compress bool
}

// New returns a Renderer with compression on.
func New() *Renderer {
	return &Renderer{Now: time.Now, Compress: true}
}

// Render lays out the report. Sections always come in the same order; the
// pathway is left out when there are no courses.
func (r *Renderer) Render(content feedback.Content) ([]byte, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Report Feedback Candidato", true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	width -= 2 * margin

	pdf.SetFont(font, "I", 10)
	pdf.MultiCell(width, lineHeight, tr(Disclaimer), "", "J", false)
	pdf.Ln(12)

	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(gray[0], gray[1], gray[2])
	for _, line := range []string{
		"Candidato: " + content.CandidateName,
		"Posizione Target: " + content.TargetRole,
		"Data: " + now().Format("02 January 2006"),
	} {
		pdf.CellFormat(width, lineHeight, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetDrawColor(gray[0], gray[1], gray[2])
	pdf.SetLineWidth(0.2)
	y := pdf.GetY()
	pdf.Line(margin, y, margin+width, y)
	pdf.Ln(8)

	heading(pdf, tr, width, TitleProfile)
	paragraph(pdf, tr, width, content.ProfileSummary)

	heading(pdf, tr, width, TitleCV)
	paragraph(pdf, tr, width, content.CVAnalysisOutcome)

	heading(pdf, tr, width, TitleInterview)
	paragraph(pdf, tr, width, content.InterviewOutcome)

	if len(content.SuggestedPathway) > 0 {
		heading(pdf, tr, width, TitlePathway)
		paragraph(pdf, tr, width, pathwayIntro)

		for i, course := range content.SuggestedPathway {
			pdf.SetFont(font, "B", 12)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(2)
			pdf.MultiCell(width, 6, tr(fmt.Sprintf("%d. %s", i+1, course.CourseName)), "", "L", false)

			pdf.SetFont(font, "", 11)
			pdf.MultiCell(width, lineHeight, tr("Obiettivo: "+course.Justification), "", "L", false)

			pdf.SetFont(font, "I", 11)
			pdf.Write(lineHeight, tr(fmt.Sprintf("Livello: %s | Durata: ~%s ore | ", course.Level, hours(course.DurationHours))))
			if course.URL != "" {
				pdf.SetTextColor(blue[0], blue[1], blue[2])
				pdf.SetFont(font, "IU", 11)
				pdf.WriteLinkString(lineHeight, "Vai al corso", course.URL)
				pdf.SetTextColor(0, 0, 0)
			}
			pdf.Ln(lineHeight + 3)
		}
	}

	heading(pdf, tr, width, TitleBenchmark)
	paragraph(pdf, tr, width, content.MarketBenchmark)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, width float64, title string) {
	pdf.Ln(3)
	pdf.SetFont(font, "B", 16)
	pdf.SetTextColor(navy[0], navy[1], navy[2])
	pdf.MultiCell(width, 8, tr(title), "", "L", false)
	pdf.Ln(3)
}

func paragraph(pdf *fpdf.Fpdf, tr func(string) string, width float64, text string) {
	pdf.SetFont(font, "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(width, lineHeight, tr(strings.TrimSpace(text)), "", "L", false)
	pdf.Ln(4)
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
