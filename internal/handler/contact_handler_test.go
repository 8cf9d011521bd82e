package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/service"
)

type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestContactSend(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantMails  int
	}{
		{"valid", `{"name":"Bob","email":"bob@example.com","message":"The timer froze on question 7."}`, http.StatusOK, "", 1},
		{"bad email", `{"name":"Bob","email":"bob","message":"The timer froze on question 7."}`, http.StatusBadRequest, "VALIDATION_ERROR", 0},
		{"short message", `{"name":"Bob","email":"bob@example.com","message":"hi"}`, http.StatusBadRequest, "VALIDATION_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &recordingMailer{}
			h := NewContactHandler(service.NewContactService(m, "support@example.com", zerolog.Nop()), zerolog.Nop())
			r := gin.New()
			r.POST("/contact", h.Send)

			req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("code = %q, want %q", got, tt.wantCode)
				}
			}
			if len(m.sent) != tt.wantMails {
				t.Errorf("sent %d mails, want %d", len(m.sent), tt.wantMails)
			}
		})
	}
}
