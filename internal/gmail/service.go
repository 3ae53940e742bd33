package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/MailPilot/MP-Backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Result is the uniform envelope every façade call resolves to. A failed
// provider call carries the provider's error; the handler layer maps its
// code onto the application error taxonomy.
type Result struct {
	Success       bool      `json:"success"`
	Data          any       `json:"data,omitempty"`
	NextPageToken string    `json:"next_page_token,omitempty"`
	Error         *APIError `json:"error,omitempty"`
}

func ok(data any) Result { return Result{Success: true, Data: data} }

func okPaged(data any, next string) Result {
	return Result{Success: true, Data: data, NextPageToken: next}
}

func fail(err error) Result {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Result{Error: apiErr}
	}
	return Result{Error: &APIError{Code: 500, Message: err.Error()}}
}

// Service is the façade over the Gmail client: it reshapes provider
// responses into the API's envelope types and owns the per-user token rows.
type Service struct {
	client *Client
	tokens *repository.Repository[GmailToken]
	scopes []string
	topic  string
}

func NewService(client *Client, gdb *gorm.DB, scopes []string, topicName string) *Service {
	return &Service{
		client: client,
		tokens: repository.New[GmailToken](gdb),
		scopes: scopes,
		topic:  topicName,
	}
}

// Tokens exposes the token repository for handlers and middleware-style
// lookups.
func (s *Service) Tokens() *repository.Repository[GmailToken] { return s.tokens }

// ActiveToken returns the user's active refresh-token row, if any.
func (s *Service) ActiveToken(ctx context.Context, userID uuid.UUID) (*GmailToken, error) {
	return s.tokens.FindOne(ctx, repository.Filter{"user_id": userID, "is_active": true})
}

// ConsentURL builds the consent page URL for the user, carrying forward any
// scopes already granted so a reauthorization does not narrow access.
func (s *Service) ConsentURL(ctx context.Context, userID uuid.UUID) (string, error) {
	scopes := append([]string(nil), s.scopes...)
	existing, err := s.ActiveToken(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if existing != nil {
		scopes = append(scopes, existing.Scope...)
	}
	return s.client.ConsentURL(dedupe(scopes)), nil
}

// Authorize exchanges the consent code, deactivates the user's older token
// rows and stores the new refresh token, then starts the mailbox watch.
func (s *Service) Authorize(ctx context.Context, userID uuid.UUID, email, code string) (*GmailToken, error) {
	token, err := s.client.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	var scope []string
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		scope = strings.Split(raw, " ")
	}

	if _, err := s.tokens.UpdateMany(ctx,
		repository.Filter{"user_id": userID, "is_active": true},
		map[string]any{"is_active": false}); err != nil {
		return nil, err
	}

	row := &GmailToken{
		UserID:   userID,
		Email:    email,
		Token:    token.RefreshToken,
		Scope:    scope,
		IsActive: true,
	}
	if err := s.tokens.Save(ctx, row); err != nil {
		return nil, err
	}

	// Watch failures are logged by the client but do not fail the
	// authorization; a later renewal pass can retry.
	if s.topic != "" {
		_, _ = s.client.Watch(ctx, row.Token, s.topic)
	}
	return row, nil
}

// Revoke deactivates the user's active token row.
func (s *Service) Revoke(ctx context.Context, userID uuid.UUID) error {
	_, err := s.tokens.UpdateMany(ctx,
		repository.Filter{"user_id": userID, "is_active": true},
		map[string]any{"is_active": false})
	return err
}

// ListMessageThreads lists inbox threads, keeping only INBOX/SENT messages
// and counting attachments per thread. Continuation tokens are forwarded
// opaquely.
func (s *Service) ListMessageThreads(ctx context.Context, refreshToken string, pageSize int, pageToken string) Result {
	list, err := s.client.ListThreads(ctx, refreshToken, pageSize, pageToken)
	if err != nil {
		return fail(err)
	}

	threads := make([]ThreadSummary, 0, len(list.Threads))
	for _, t := range list.Threads {
		detail, err := s.client.GetThread(ctx, refreshToken, t.ID)
		if err != nil {
			return fail(err)
		}

		summary := ThreadSummary{ID: t.ID, Messages: []ThreadMessage{}}
		for _, m := range detail.Messages {
			if !hasAnyLabel(m.LabelIDs, "INBOX", "SENT") {
				continue
			}
			summary.AttachmentCount += countAttachments(m.Payload)
			summary.Messages = append(summary.Messages, reshapeMessage(m))
		}

		if len(summary.Messages) > 0 {
			threads = append(threads, summary)
		}
	}
	return okPaged(threads, list.NextPageToken)
}

// ThreadMessages returns the full messages of a thread, skipping
// SPAM/TRASH/DRAFT entries, with decoded bodies and fetched attachments.
// When search is set, only messages whose body matches (case-insensitive)
// are returned.
func (s *Service) ThreadMessages(ctx context.Context, refreshToken, threadID, search string) Result {
	thread, err := s.client.GetThread(ctx, refreshToken, threadID)
	if err != nil {
		return fail(err)
	}

	var pattern *regexp.Regexp
	if search != "" {
		pattern, err = regexp.Compile("(?i)" + regexp.QuoteMeta(search))
		if err != nil {
			return fail(err)
		}
	}

	messages := []FullMessage{}
	for _, m := range thread.Messages {
		if hasAnyLabel(m.LabelIDs, "SPAM", "TRASH", "DRAFT") {
			continue
		}

		full, err := s.reshapeFullMessage(ctx, refreshToken, m)
		if err != nil {
			return fail(err)
		}

		if pattern != nil && !pattern.MatchString(full.Body) {
			continue
		}
		messages = append(messages, full)
	}
	return ok(messages)
}

// ListMessages lists messages carrying the given label.
func (s *Service) ListMessages(ctx context.Context, refreshToken, label string, pageSize int, pageToken string) Result {
	list, err := s.client.ListMessages(ctx, refreshToken, label, pageSize, pageToken)
	if err != nil {
		return fail(err)
	}

	messages := make([]ThreadMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		m, err := s.client.GetMessage(ctx, refreshToken, ref.ID)
		if err != nil {
			return fail(err)
		}
		messages = append(messages, reshapeMessage(*m))
	}
	return okPaged(messages, list.NextPageToken)
}

// ListDrafts lists draft messages with their headers.
func (s *Service) ListDrafts(ctx context.Context, refreshToken string, pageSize int, pageToken string) Result {
	list, err := s.client.ListDrafts(ctx, refreshToken, pageSize, pageToken)
	if err != nil {
		return fail(err)
	}

	drafts := make([]map[string]any, 0, len(list.Drafts))
	for _, ref := range list.Drafts {
		draft, err := s.client.GetDraft(ctx, refreshToken, ref.ID)
		if err != nil {
			return fail(err)
		}
		entry := map[string]any{"id": draft.ID}
		if draft.Message != nil {
			entry["message"] = reshapeMessage(*draft.Message)
		}
		drafts = append(drafts, entry)
	}
	return okPaged(drafts, list.NextPageToken)
}

// DraftDetails returns one draft with its decoded message body.
func (s *Service) DraftDetails(ctx context.Context, refreshToken, draftID string) Result {
	draft, err := s.client.GetDraft(ctx, refreshToken, draftID)
	if err != nil {
		return fail(err)
	}
	if draft.Message == nil {
		return ok(map[string]any{"id": draft.ID})
	}

	full, err := s.reshapeFullMessage(ctx, refreshToken, *draft.Message)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"id": draft.ID, "message": full})
}

// MessageDetails returns one message with decoded body and attachments.
func (s *Service) MessageDetails(ctx context.Context, refreshToken, messageID string) Result {
	m, err := s.client.GetMessage(ctx, refreshToken, messageID)
	if err != nil {
		return fail(err)
	}
	full, err := s.reshapeFullMessage(ctx, refreshToken, *m)
	if err != nil {
		return fail(err)
	}
	return ok(full)
}

// GetLabelStats returns message/thread counts for a label.
func (s *Service) GetLabelStats(ctx context.Context, refreshToken, labelID string) Result {
	label, err := s.client.GetLabel(ctx, refreshToken, labelID)
	if err != nil {
		return fail(err)
	}
	return ok(LabelStats{
		ID:             label.ID,
		Name:           label.Name,
		MessagesTotal:  label.MessagesTotal,
		MessagesUnread: label.MessagesUnread,
		ThreadsTotal:   label.ThreadsTotal,
		ThreadsUnread:  label.ThreadsUnread,
	})
}

// AddMessageLabels attaches label ids to a message.
func (s *Service) AddMessageLabels(ctx context.Context, refreshToken, messageID string, labels ...string) Result {
	if _, err := s.client.ModifyMessage(ctx, refreshToken, messageID, labels, nil); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// RemoveMessageLabels detaches label ids from a message.
func (s *Service) RemoveMessageLabels(ctx context.Context, refreshToken, messageID string, labels ...string) Result {
	if _, err := s.client.ModifyMessage(ctx, refreshToken, messageID, nil, labels); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// TrashMessage moves a message to the trash.
func (s *Service) TrashMessage(ctx context.Context, refreshToken, messageID string) Result {
	if _, err := s.client.TrashMessage(ctx, refreshToken, messageID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// UntrashMessage restores a trashed message.
func (s *Service) UntrashMessage(ctx context.Context, refreshToken, messageID string) Result {
	if _, err := s.client.UntrashMessage(ctx, refreshToken, messageID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// BatchDelete trashes the given message ids permanently.
func (s *Service) BatchDelete(ctx context.Context, refreshToken string, messageIDs []string) Result {
	if err := s.client.BatchDelete(ctx, refreshToken, messageIDs); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// Send submits a raw RFC 822 message, optionally as a reply on a thread.
func (s *Service) Send(ctx context.Context, refreshToken, raw, threadID string) Result {
	m, err := s.client.SendMessage(ctx, refreshToken, raw, threadID)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"id": m.ID, "threadId": m.ThreadID})
}

// reshapeFullMessage decodes the message body and fetches its attachments.
func (s *Service) reshapeFullMessage(ctx context.Context, refreshToken string, m Message) (FullMessage, error) {
	full := FullMessage{
		ThreadMessage: reshapeMessage(m),
		Attachments:   []Attachment{},
	}
	if m.Payload == nil {
		return full, nil
	}

	full.Body = decodeBody(m.Payload)

	for _, part := range collectAttachmentParts(m.Payload) {
		att := Attachment{FileName: part.Filename, FileType: part.MimeType}
		if part.Body.Data != "" {
			att.File = part.Body.Data
		} else {
			body, err := s.client.GetAttachment(ctx, refreshToken, m.ID, part.Body.AttachmentID)
			if err != nil {
				return full, err
			}
			att.File = body.Data
		}
		full.Attachments = append(full.Attachments, att)
	}
	return full, nil
}

// reshapeMessage lifts the interesting RFC 822 headers out of the payload.
func reshapeMessage(m Message) ThreadMessage {
	headers := EmailHeaders{}
	if m.Payload != nil {
		headers = extractHeaders(m.Payload.Headers)
	}
	labels := m.LabelIDs
	if labels == nil {
		labels = []string{}
	}
	return ThreadMessage{
		Headers:  headers,
		ID:       m.ID,
		ThreadID: m.ThreadID,
		LabelIDs: labels,
		Snippet:  m.Snippet,
	}
}

func extractHeaders(headers []Header) EmailHeaders {
	out := EmailHeaders{}
	for _, h := range headers {
		switch h.Name {
		case "From":
			out.From = h.Value
		case "To":
			out.To = h.Value
		case "Cc":
			out.Cc = h.Value
		case "Subject":
			out.Subject = h.Value
		case "Date":
			out.Date = h.Value
		case "Message-ID":
			out.MessageID = h.Value
		}
	}
	return out
}

// decodeBody finds the first text part and decodes its base64url content.
func decodeBody(payload *Part) string {
	if part := findTextPart(payload); part != nil && part.Body != nil {
		if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "=")); err == nil {
			return string(decoded)
		}
	}
	return ""
}

func findTextPart(p *Part) *Part {
	if p == nil {
		return nil
	}
	if strings.HasPrefix(p.MimeType, "text/") && p.Filename == "" && p.Body != nil && p.Body.Data != "" {
		return p
	}
	for i := range p.Parts {
		if found := findTextPart(&p.Parts[i]); found != nil {
			return found
		}
	}
	return nil
}

func collectAttachmentParts(p *Part) []Part {
	var out []Part
	if p == nil {
		return out
	}
	for _, child := range p.Parts {
		if child.Filename != "" && child.Body != nil {
			out = append(out, child)
			continue
		}
		out = append(out, collectAttachmentParts(&child)...)
	}
	return out
}

func countAttachments(p *Part) int {
	return len(collectAttachmentParts(p))
}

func hasAnyLabel(labels []string, wanted ...string) bool {
	for _, l := range labels {
		for _, w := range wanted {
			if l == w {
				return true
			}
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
