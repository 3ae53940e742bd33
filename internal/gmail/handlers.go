package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MailPilot/MP-Backend/internal/apperror"
	"github.com/MailPilot/MP-Backend/internal/config"
	"github.com/MailPilot/MP-Backend/internal/httpx"
	"github.com/MailPilot/MP-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// listableLabels are the label views the plain list endpoint accepts.
var listableLabels = map[string]bool{
	"TRASH":   true,
	"STARRED": true,
	"SENT":    true,
	"DRAFT":   true,
}

// UserDirectory resolves the authenticated user's email address for token
// storage and message composition.
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

type Handler struct {
	svc       *Service
	directory UserDirectory
	upload    config.Upload
}

func NewHandler(svc *Service, directory UserDirectory, upload config.Upload) *Handler {
	return &Handler{svc: svc, directory: directory, upload: upload}
}

// requireToken loads the caller's active refresh token. When none exists the
// error response carries the consent page URL so the client can start the
// authorization flow directly.
func (h *Handler) requireToken(w http.ResponseWriter, r *http.Request) (*GmailToken, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidToken, nil)
		return nil, false
	}

	token, err := h.svc.ActiveToken(r.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.sendConsentRequired(w, r, userID)
			return nil, false
		}
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return nil, false
	}
	return token, true
}

func (h *Handler) sendConsentRequired(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	url, err := h.svc.ConsentURL(r.Context(), userID)
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}
	httpx.SendError(w, http.StatusBadRequest, apperror.ConsentRequired, nil,
		map[string]string{"consentPageUrl": url})
}

// handleProviderError reclassifies provider failures: auth failures turn
// into a consent prompt, missing resources and bad requests keep their
// meaning, anything else is a plain server error.
func (h *Handler) handleProviderError(w http.ResponseWriter, r *http.Request, userID uuid.UUID, apiErr *APIError) {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		h.sendConsentRequired(w, r, userID)
	case http.StatusNotFound:
		httpx.SendError(w, http.StatusNotFound, apperror.ResourceNotFound("Resource"), apiErr)
	case http.StatusBadRequest:
		httpx.SendError(w, http.StatusBadRequest, apperror.BadRequest(apiErr.Message), apiErr)
	default:
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, apiErr)
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, userID uuid.UUID, res Result) {
	if res.Error != nil {
		h.handleProviderError(w, r, userID, res.Error)
		return
	}
	if res.NextPageToken != "" {
		httpx.SendSuccess(w, http.StatusOK, map[string]any{
			"items":           res.Data,
			"next_page_token": res.NextPageToken,
		})
		return
	}
	httpx.SendSuccess(w, http.StatusOK, res.Data)
}

func pageParams(r *http.Request) (int, string) {
	size := DefaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = n
		}
	}
	return size, r.URL.Query().Get("page_token")
}

// ConsentPromptURL returns the consent page URL for the caller.
func (h *Handler) ConsentPromptURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidToken, nil)
		return
	}
	url, err := h.svc.ConsentURL(r.Context(), userID)
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"consentPageUrl": url})
}

// OAuthCallback exchanges the consent code and stores the refresh token.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidToken, nil)
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("code"), err)
		return
	}

	email, err := h.directory.EmailForUser(r.Context(), userID)
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}

	if _, err := h.svc.Authorize(r.Context(), userID, email, body.Code); err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Authorization successful"})
}

// Disconnect deactivates the caller's mailbox authorization.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidToken, nil)
		return
	}
	if err := h.svc.Revoke(r.Context(), userID); err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Mailbox disconnected"})
}

// ListThreads lists the caller's inbox threads.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	size, pageToken := pageParams(r)
	res := h.svc.ListMessageThreads(r.Context(), token.Token, size, pageToken)
	h.writeResult(w, r, token.UserID, res)
}

// ThreadMessages returns the messages of one thread, optionally filtered by
// a body search term.
func (h *Handler) ThreadMessages(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	threadID := chi.URLParam(r, "threadID")
	res := h.svc.ThreadMessages(r.Context(), token.Token, threadID, r.URL.Query().Get("search"))
	h.writeResult(w, r, token.UserID, res)
}

// ListByLabel lists messages in one of the label views.
func (h *Handler) ListByLabel(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	label := strings.ToUpper(r.URL.Query().Get("label"))
	if !listableLabels[label] {
		httpx.SendError(w, http.StatusBadRequest,
			apperror.BadRequest("label must be one of TRASH, STARRED, SENT, DRAFT"), nil)
		return
	}
	size, pageToken := pageParams(r)
	res := h.svc.ListMessages(r.Context(), token.Token, label, size, pageToken)
	h.writeResult(w, r, token.UserID, res)
}

// ListDrafts lists the caller's drafts.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	size, pageToken := pageParams(r)
	res := h.svc.ListDrafts(r.Context(), token.Token, size, pageToken)
	h.writeResult(w, r, token.UserID, res)
}

// DraftDetails returns one draft with its decoded body.
func (h *Handler) DraftDetails(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	res := h.svc.DraftDetails(r.Context(), token.Token, chi.URLParam(r, "draftID"))
	h.writeResult(w, r, token.UserID, res)
}

// LabelStats returns message and thread counts for a label.
func (h *Handler) LabelStats(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	label := r.URL.Query().Get("label")
	if label == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("label"), nil)
		return
	}
	res := h.svc.GetLabelStats(r.Context(), token.Token, strings.ToUpper(label))
	h.writeResult(w, r, token.UserID, res)
}

// MessageDetails returns one message with decoded body and attachments.
func (h *Handler) MessageDetails(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	res := h.svc.MessageDetails(r.Context(), token.Token, chi.URLParam(r, "messageID"))
	h.writeResult(w, r, token.UserID, res)
}

// Send composes and submits an outgoing message from a multipart form. Form
// fields: to, cc, bcc, subject, body, thread_id; attachments under "files".
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.upload.MaxFileBytes * int64(h.upload.MaxFiles)); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.FileUploadError, err)
		return
	}

	to := r.FormValue("to")
	if to == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("to"), nil)
		return
	}

	attachments := []OutgoingAttachment{}
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["files"]
		if uploadErr := ValidateAttachments(headers, h.upload); uploadErr != nil {
			httpx.SendError(w, uploadErr.Status, uploadErr.Message, nil)
			return
		}
		read, err := ReadAttachments(headers)
		if err != nil {
			httpx.SendError(w, http.StatusInternalServerError, apperror.FileUploadError, err)
			return
		}
		attachments = read
	}

	raw, err := ComposeRaw(OutgoingMessage{
		From:        token.Email,
		To:          to,
		Cc:          r.FormValue("cc"),
		Bcc:         r.FormValue("bcc"),
		Subject:     r.FormValue("subject"),
		Body:        r.FormValue("body"),
		Attachments: attachments,
	})
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}

	res := h.svc.Send(r.Context(), token.Token, raw, r.FormValue("thread_id"))
	h.writeResult(w, r, token.UserID, res)
}

// Star adds the STARRED label to a message.
func (h *Handler) Star(w http.ResponseWriter, r *http.Request) {
	h.modifyLabels(w, r, []string{"STARRED"}, nil)
}

// Unstar removes the STARRED label from a message.
func (h *Handler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.modifyLabels(w, r, nil, []string{"STARRED"})
}

// Archive removes the INBOX label from a message.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.modifyLabels(w, r, nil, []string{"INBOX"})
}

func (h *Handler) modifyLabels(w http.ResponseWriter, r *http.Request, add, remove []string) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	messageID := chi.URLParam(r, "messageID")
	var res Result
	if len(add) > 0 {
		res = h.svc.AddMessageLabels(r.Context(), token.Token, messageID, add...)
	} else {
		res = h.svc.RemoveMessageLabels(r.Context(), token.Token, messageID, remove...)
	}
	if res.Error != nil {
		h.handleProviderError(w, r, token.UserID, res.Error)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Message updated"})
}

// Trash moves a message to the trash.
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	res := h.svc.TrashMessage(r.Context(), token.Token, chi.URLParam(r, "messageID"))
	if res.Error != nil {
		h.handleProviderError(w, r, token.UserID, res.Error)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Message moved to trash"})
}

// Untrash restores a message from the trash.
func (h *Handler) Untrash(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}
	res := h.svc.UntrashMessage(r.Context(), token.Token, chi.URLParam(r, "messageID"))
	if res.Error != nil {
		h.handleProviderError(w, r, token.UserID, res.Error)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Message restored"})
}

// BatchTrash deletes a batch of messages.
func (h *Handler) BatchTrash(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireToken(w, r)
	if !ok {
		return
	}

	var body struct {
		MessageIDs []string `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.MessageIDs) == 0 {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("message_ids"), err)
		return
	}

	res := h.svc.BatchDelete(r.Context(), token.Token, body.MessageIDs)
	if res.Error != nil {
		h.handleProviderError(w, r, token.UserID, res.Error)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Messages deleted"})
}
