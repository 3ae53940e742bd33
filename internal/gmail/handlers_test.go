package gmail

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func providerErrorCode(t *testing.T, status int) (int, int) {
	t.Helper()

	h := NewHandler(&Service{}, nil, testRules())
	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	rec := httptest.NewRecorder()

	h.handleProviderError(rec, req, uuid.New(), &APIError{Code: status, Message: "provider says no"})

	var body struct {
		ErrorCode int `json:"error_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return rec.Code, body.ErrorCode
}

func TestHandleProviderError_NotFound(t *testing.T) {
	status, code := providerErrorCode(t, http.StatusNotFound)
	if status != http.StatusNotFound || code != 3 {
		t.Errorf("expected 404/code 3, got %d/code %d", status, code)
	}
}

func TestHandleProviderError_BadRequest(t *testing.T) {
	status, code := providerErrorCode(t, http.StatusBadRequest)
	if status != http.StatusBadRequest || code != 26 {
		t.Errorf("expected 400/code 26, got %d/code %d", status, code)
	}
}

func TestHandleProviderError_Unclassified(t *testing.T) {
	status, code := providerErrorCode(t, http.StatusBadGateway)
	if status != http.StatusInternalServerError || code != 8 {
		t.Errorf("expected 500/code 8, got %d/code %d", status, code)
	}
}
