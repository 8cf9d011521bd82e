package certificate

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRender(t *testing.T) {
	r := NewRenderer("IQ Scaler", "https://iqscaler.example/")
	id := uuid.New()

	pdf, err := r.Render(Data{
		ResultID:       id,
		Name:           "Ada Lovelace",
		Username:       "ada",
		Score:          37,
		MaxScore:       45,
		CorrectAnswers: 12,
		TotalQuestions: 15,
		TimeTaken:      9*time.Minute + 15*time.Second,
		TestDate:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", pdf[:min(len(pdf), 8)])
	}
	if got, want := r.VerifyURL(id), "https://iqscaler.example/certificates/verify/"+id.String(); got != want {
		t.Errorf("VerifyURL = %q, want %q", got, want)
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"ada":          "IQ_Certificate_ada.pdf",
		"Ada Lovelace": "IQ_Certificate_Ada_Lovelace.pdf",
		"../etc":       "IQ_Certificate_etc.pdf",
		"":             "IQ_Certificate_user.pdf",
	}
	for in, want := range tests {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(125 * time.Second); got != "2m 05s" {
		t.Errorf("formatDuration = %q", got)
	}
}
