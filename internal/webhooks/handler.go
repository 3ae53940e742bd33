package webhooks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/MailPilot/MP-Backend/internal/apperror"
	"github.com/MailPilot/MP-Backend/internal/httpx"
	"github.com/MailPilot/MP-Backend/internal/repository"
	"gorm.io/gorm"
)

const maxPushBodyBytes = 1 << 20

// pushEnvelope is the pub/sub delivery wrapper. The data field is the
// base64-encoded notification payload.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// mailboxChange is the decoded notification payload.
type mailboxChange struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// NotificationStore persists incoming notifications. The narrow interface
// keeps the handler testable without a database.
type NotificationStore interface {
	Save(ctx context.Context, n *PushNotification) error
}

type repoStore struct {
	repo *repository.Repository[PushNotification]
}

func (s *repoStore) Save(ctx context.Context, n *PushNotification) error {
	return s.repo.Save(ctx, n)
}

// NewStore builds the gorm-backed notification store.
func NewStore(gdb *gorm.DB) NotificationStore {
	return &repoStore{repo: repository.New[PushNotification](gdb)}
}

type Handler struct {
	store NotificationStore
}

func NewHandler(store NotificationStore) *Handler {
	return &Handler{store: store}
}

// Receive accepts a mailbox push notification. The endpoint always
// acknowledges well-formed deliveries; the subscription retries anything
// else.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPushBodyBytes)

	var envelope pushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidRequest("Malformed push envelope"), err)
		return
	}
	if envelope.Message.Data == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("message.data"), nil)
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(envelope.Message.Data)
	}
	if err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidValue("message.data"), err)
		return
	}

	var change mailboxChange
	if err := json.Unmarshal(decoded, &change); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidValue("message.data"), err)
		return
	}

	notification := &PushNotification{
		EmailAddress: change.EmailAddress,
		HistoryID:    change.HistoryID,
		MessageID:    envelope.Message.MessageID,
		Payload:      string(decoded),
	}
	if err := h.store.Save(r.Context(), notification); err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToSave, err)
		return
	}

	log.Printf("[webhook] mailbox change for %s (history %d)", change.EmailAddress, change.HistoryID)
	httpx.SendSuccess(w, http.StatusOK, map[string]string{"message": "Notification received"})
}
