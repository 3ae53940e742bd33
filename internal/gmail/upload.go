package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/MailPilot/MP-Backend/internal/apperror"
	"github.com/MailPilot/MP-Backend/internal/config"
)

// OutgoingAttachment is one attachment of an outgoing message, already read
// into memory and validated against the upload rules.
type OutgoingAttachment struct {
	FileName string
	MimeType string
	Content  []byte
}

// OutgoingMessage is everything needed to compose a raw RFC 822 message.
type OutgoingMessage struct {
	From        string
	To          string
	Cc          string
	Bcc         string
	Subject     string
	Body        string
	Attachments []OutgoingAttachment
}

// UploadError pairs an application error message with the HTTP status the
// handler should respond with.
type UploadError struct {
	Status  int
	Message apperror.Message
}

func (e *UploadError) Error() string { return e.Message.Message }

// ValidateAttachments enforces the upload limits: file count, per-file size
// and allowed content types.
func ValidateAttachments(files []*multipart.FileHeader, rules config.Upload) *UploadError {
	if len(files) > rules.MaxFiles {
		return &UploadError{Status: 400, Message: apperror.MaxFileCountLimit}
	}
	for _, f := range files {
		if f.Size > rules.MaxFileBytes {
			return &UploadError{Status: 400, Message: apperror.FileSizeLimit}
		}
		if !typeAllowed(f.Header.Get("Content-Type"), rules.AllowedTypes) {
			return &UploadError{Status: 400, Message: apperror.InvalidFileType(rules.AllowedTypes)}
		}
	}
	return nil
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// ReadAttachments drains the uploaded files into memory for composition.
func ReadAttachments(files []*multipart.FileHeader) ([]OutgoingAttachment, error) {
	out := make([]OutgoingAttachment, 0, len(files))
	for _, f := range files {
		src, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, OutgoingAttachment{
			FileName: f.Filename,
			MimeType: f.Header.Get("Content-Type"),
			Content:  content,
		})
	}
	return out, nil
}

// ComposeRaw builds the base64url-encoded RFC 822 message the provider's
// send endpoint expects. Attachments go into a multipart/mixed envelope.
func ComposeRaw(msg OutgoingMessage) (string, error) {
	var buf bytes.Buffer

	writeHeader := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
		}
	}
	writeHeader("From", msg.From)
	writeHeader("To", msg.To)
	writeHeader("Cc", msg.Cc)
	writeHeader("Bcc", msg.Bcc)
	writeHeader("Subject", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(msg.Body)
		return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := make(map[string][]string)
	bodyHeader["Content-Type"] = []string{"text/html; charset=\"UTF-8\""}
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return "", err
	}
	if _, err := bodyPart.Write([]byte(msg.Body)); err != nil {
		return "", err
	}

	for _, att := range msg.Attachments {
		header := make(map[string][]string)
		header["Content-Type"] = []string{att.MimeType}
		header["Content-Transfer-Encoding"] = []string{"base64"}
		header["Content-Disposition"] = []string{fmt.Sprintf("attachment; filename=%q", att.FileName)}
		part, err := writer.CreatePart(header)
		if err != nil {
			return "", err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}
