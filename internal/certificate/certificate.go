// Package certificate renders result certificates as landscape A4 PDFs.
package certificate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// Data is the content printed on a certificate.
type Data struct {
	ResultID       uuid.UUID
	Name           string
	Username       string
	Score          int
	MaxScore       int
	CorrectAnswers int
	TotalQuestions int
	TimeTaken      time.Duration
	TestDate       time.Time
}

// Renderer draws certificates. The zero value is not usable; call NewRenderer.
type Renderer struct {
	appName       string
	verifyBaseURL string
}

// NewRenderer creates a renderer printing verification links under verifyBaseURL.
func NewRenderer(appName, verifyBaseURL string) *Renderer {
	return &Renderer{
		appName:       appName,
		verifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
	}
}

// VerifyURL is the public link that proves a certificate is genuine.
func (r *Renderer) VerifyURL(resultID uuid.UUID) string {
	return fmt.Sprintf("%s/certificates/verify/%s", r.verifyBaseURL, resultID)
}

// Render returns the PDF bytes for d.
func (r *Renderer) Render(d Data) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(r.appName+" Certificate", true)
	pdf.SetCreator(r.appName, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	// core fonts are cp1252; names arrive as UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w, h := pdf.GetPageSize()

	// double frame
	pdf.SetDrawColor(30, 64, 175)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 15, w-30, h-30, "D")

	pdf.SetY(35)
	pdf.SetTextColor(30, 64, 175)
	pdf.SetFont("Helvetica", "B", 34)
	pdf.CellFormat(0, 16, "Certificate of Achievement", "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, tr(d.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 12)
	pdf.CellFormat(0, 7, "@"+tr(d.Username), "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 9, fmt.Sprintf("completed the %s IQ assessment on %s", r.appName, d.TestDate.Format("2 January 2006")),
		"", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetTextColor(30, 64, 175)
	pdf.SetFont("Helvetica", "B", 40)
	pdf.CellFormat(0, 18, fmt.Sprintf("%d / %d", d.Score, d.MaxScore), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("%d of %d questions answered correctly in %s",
		d.CorrectAnswers, d.TotalQuestions, formatDuration(d.TimeTaken)), "", 1, "C", false, 0, "")

	pdf.SetY(h - 38)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Certificate ID: "+d.ResultID.String(), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Verify at "+r.VerifyURL(d.ResultID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename returns the download name for a user's certificate.
func Filename(username string) string {
	name := unsafeFilename.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(username), " ", "_"), "")
	if name == "" {
		name = "user"
	}
	return "IQ_Certificate_" + name + ".pdf"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dm %02ds", m, s)
}
