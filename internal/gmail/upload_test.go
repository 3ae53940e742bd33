package gmail

import (
	"encoding/base64"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/MailPilot/MP-Backend/internal/config"
)

func testRules() config.Upload {
	return config.Upload{
		MaxFiles:     2,
		MaxFileBytes: 1024,
		AllowedTypes: []string{"application/pdf", "image/png"},
	}
}

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestValidateAttachments_TooMany(t *testing.T) {
	files := []*multipart.FileHeader{
		fileHeader("a.pdf", "application/pdf", 10),
		fileHeader("b.pdf", "application/pdf", 10),
		fileHeader("c.pdf", "application/pdf", 10),
	}

	err := ValidateAttachments(files, testRules())
	if err == nil || err.Message.Code != 27 {
		t.Errorf("expected max-file-count code 27, got %+v", err)
	}
}

func TestValidateAttachments_TooLarge(t *testing.T) {
	files := []*multipart.FileHeader{fileHeader("big.pdf", "application/pdf", 4096)}

	err := ValidateAttachments(files, testRules())
	if err == nil || err.Message.Code != 24 {
		t.Errorf("expected file-size code 24, got %+v", err)
	}
}

func TestValidateAttachments_BadType(t *testing.T) {
	files := []*multipart.FileHeader{fileHeader("run.exe", "application/octet-stream", 10)}

	err := ValidateAttachments(files, testRules())
	if err == nil || err.Message.Code != 23 {
		t.Errorf("expected invalid-file-type code 23, got %+v", err)
	}
}

func TestValidateAttachments_OK(t *testing.T) {
	files := []*multipart.FileHeader{
		fileHeader("a.pdf", "application/pdf", 512),
		fileHeader("b.png", "image/png", 512),
	}

	if err := ValidateAttachments(files, testRules()); err != nil {
		t.Errorf("expected valid upload, got %+v", err)
	}
}

func TestComposeRaw_PlainMessage(t *testing.T) {
	raw, err := ComposeRaw(OutgoingMessage{
		From:    "me@example.com",
		To:      "you@example.com",
		Subject: "Greetings",
		Body:    "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("ComposeRaw: %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("output is not base64url: %v", err)
	}
	text := string(decoded)

	for _, want := range []string{
		"From: me@example.com",
		"To: you@example.com",
		"Subject: Greetings",
		"<p>hello</p>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Cc:") {
		t.Error("empty Cc header should be omitted")
	}
}

func TestComposeRaw_WithAttachment(t *testing.T) {
	raw, err := ComposeRaw(OutgoingMessage{
		From:    "me@example.com",
		To:      "you@example.com",
		Subject: "Report",
		Body:    "see attached",
		Attachments: []OutgoingAttachment{
			{FileName: "report.pdf", MimeType: "application/pdf", Content: []byte("pdf-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("ComposeRaw: %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("output is not base64url: %v", err)
	}
	text := string(decoded)

	if !strings.Contains(text, "multipart/mixed") {
		t.Error("expected multipart/mixed envelope")
	}
	if !strings.Contains(text, `filename="report.pdf"`) {
		t.Error("attachment disposition missing")
	}
	if !strings.Contains(text, base64.StdEncoding.EncodeToString([]byte("pdf-bytes"))) {
		t.Error("attachment content missing")
	}
}
