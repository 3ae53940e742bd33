package webhooks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockStore struct {
	saved *PushNotification
	err   error
}

func (m *mockStore) Save(ctx context.Context, n *PushNotification) error {
	m.saved = n
	return m.err
}

func pushBody(data string) string {
	return fmt.Sprintf(`{"message":{"data":%q,"messageId":"pub-1"},"subscription":"sub-1"}`, data)
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/gmail", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	return rec
}

func TestReceive_PersistsNotification(t *testing.T) {
	store := &mockStore{}
	h := NewHandler(store)

	payload := `{"emailAddress":"user@example.com","historyId":421}`
	rec := post(t, h, pushBody(base64.StdEncoding.EncodeToString([]byte(payload))))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if store.saved == nil {
		t.Fatal("notification was not persisted")
	}
	if store.saved.EmailAddress != "user@example.com" {
		t.Errorf("email: got %q", store.saved.EmailAddress)
	}
	if store.saved.HistoryID != 421 {
		t.Errorf("history id: got %d", store.saved.HistoryID)
	}
	if store.saved.MessageID != "pub-1" {
		t.Errorf("message id: got %q", store.saved.MessageID)
	}
	if store.saved.Payload != payload {
		t.Errorf("payload: got %q", store.saved.Payload)
	}
}

func TestReceive_MalformedEnvelope(t *testing.T) {
	h := NewHandler(&mockStore{})

	rec := post(t, h, "not json at all")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReceive_MissingData(t *testing.T) {
	store := &mockStore{}
	h := NewHandler(store)

	rec := post(t, h, `{"message":{"messageId":"pub-1"},"subscription":"sub-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var body struct {
		ErrorCode int `json:"error_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ErrorCode != 2 {
		t.Errorf("expected required-field code 2, got %d", body.ErrorCode)
	}
	if store.saved != nil {
		t.Error("nothing should be persisted for an empty data field")
	}
}

func TestReceive_BadBase64(t *testing.T) {
	h := NewHandler(&mockStore{})

	rec := post(t, h, pushBody("%%%not-base64%%%"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReceive_BadInnerJSON(t *testing.T) {
	h := NewHandler(&mockStore{})

	rec := post(t, h, pushBody(base64.StdEncoding.EncodeToString([]byte("plain text"))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReceive_StoreFailure(t *testing.T) {
	h := NewHandler(&mockStore{err: errors.New("connection refused")})

	payload := `{"emailAddress":"user@example.com","historyId":1}`
	rec := post(t, h, pushBody(base64.StdEncoding.EncodeToString([]byte(payload))))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on store failure, got %d", rec.Code)
	}
}
