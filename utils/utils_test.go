package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedCodes(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^GA[0-9A-F]{8}$`), GenerateReferralCode())

	issued := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	assert.Regexp(t, regexp.MustCompile(`^GA-2025-[0-9A-F]{8}$`), GenerateCertificateNumber(issued))
	assert.NotEqual(t, GenerateCertificateNumber(issued), GenerateCertificateNumber(issued))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "data-analyst-bootcamp-2025", Slugify("  Data Analyst   Bootcamp (2025)! "))
	assert.Equal(t, "program", Slugify("!!!"))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)

	p = NewPagination(3, 20)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, int64(3), p.Meta(41)["total_pages"])
}

func TestRenderPlaceholders(t *testing.T) {
	out := RenderPlaceholders("Diberikan kepada {{name}} atas {{program}} ({{number}})", map[string]string{
		"name":    "Sari",
		"program": "UI/UX Design",
		"number":  "GA-2025-0A1B2C3D",
	})
	assert.Equal(t, "Diberikan kepada Sari atas UI/UX Design (GA-2025-0A1B2C3D)", out)
}

func TestLogMailer(t *testing.T) {
	m := &LogMailer{Fail: map[string]bool{"bounce@x.id": true}}

	require.NoError(t, m.Send(context.Background(), Message{To: []string{"ok@x.id"}, Subject: "Hi"}))
	assert.Error(t, m.Send(context.Background(), Message{To: []string{"Bounce@x.id"}, Subject: "Hi"}))
	assert.Len(t, m.Messages(), 1)
}

func TestWhatsAppSendMessage(t *testing.T) {
	var gotTarget, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTarget = r.FormValue("target")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wa := NewWhatsApp(srv.URL, "secret")
	require.NoError(t, wa.SendMessage("0812-3456-7890", "Pendaftaran disetujui"))
	assert.Equal(t, "6281234567890", gotTarget)
	assert.Equal(t, "secret", gotAuth)
}

func TestWhatsAppDisabledIsNoop(t *testing.T) {
	wa := NewWhatsApp("", "")
	assert.False(t, wa.Enabled())
	assert.NoError(t, wa.SendMessage("+62 812 000", "hi"))
	assert.Error(t, wa.SendMessage("", "hi"))
}
