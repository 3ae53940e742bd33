package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/MailPilot/MP-Backend/internal/apperror"
	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/MailPilot/MP-Backend/internal/httpx"
	"github.com/MailPilot/MP-Backend/internal/utils"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`(?i)^([a-z0-9]+(?:[._-][a-z0-9]+)*)@([a-z0-9]+(?:[.-][a-z0-9]+)*\.[a-z]{2,})$`)

// Handler carries the auth endpoints' dependencies explicitly.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type signupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	MiddleName      string `json:"middle_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Gender          string `json:"gender"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordUpdateRequest struct {
	Password        string `json:"password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func sessionMeta(r *http.Request) SessionMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return SessionMeta{
		Device: r.UserAgent(),
		IP:     ip,
	}
}

// Signup registers a new user and logs them in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidRequest("malformed body"), err)
		return
	}

	if msg, ok := validateSignup(req); !ok {
		httpx.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}

	user, token, err := h.svc.Signup(r.Context(), SignupPayload{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Email:      req.Email,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Password:   req.NewPassword,
	}, sessionMeta(r))
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		httpx.SendError(w, http.StatusBadRequest, apperror.DuplicateEmail, err)
		return
	case errors.Is(err, ErrDuplicatePhone):
		httpx.SendError(w, http.StatusBadRequest, apperror.DuplicatePhone, err)
		return
	case err != nil:
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}

	httpx.SendSuccess(w, http.StatusCreated, map[string]any{
		"message": "Signup successful",
		"token":   token,
		"user":    user,
	})
}

func validateSignup(req signupRequest) (apperror.Message, bool) {
	switch {
	case req.FirstName == "":
		return apperror.RequiredField("First name"), false
	case req.LastName == "":
		return apperror.RequiredField("Last name"), false
	case req.Email == "":
		return apperror.RequiredField("Email"), false
	case req.Phone == "":
		return apperror.RequiredField("Phone"), false
	case req.Gender == "":
		return apperror.RequiredField("Gender"), false
	case req.NewPassword == "":
		return apperror.RequiredField("New password"), false
	}

	if !emailPattern.MatchString(req.Email) {
		return apperror.InvalidEmail, false
	}

	switch strings.ToLower(req.Gender) {
	case db.GenderMale, db.GenderFemale, db.GenderOther:
	default:
		return apperror.InvalidValue("gender"), false
	}

	if req.NewPassword != req.ConfirmPassword {
		return apperror.PasswordMismatch, false
	}
	return apperror.Message{}, true
}

// Login verifies credentials and issues a fresh session token. Any prior
// live session for the user is closed first.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidRequest("malformed body"), err)
		return
	}
	if req.Email == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("Email"), nil)
		return
	}
	if req.Password == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("Password"), nil)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password, sessionMeta(r))
	if errors.Is(err, ErrInvalidLogin) {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidLogin, err)
		return
	}
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToLogin, err)
		return
	}

	httpx.SendSuccess(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me returns the logged-in user, fetched fresh from the database.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidSessionUser, nil)
		return
	}

	user, err := h.svc.Users().FindByID(r.Context(), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.SendError(w, http.StatusNotFound, apperror.ResourceNotFound("user"), err)
		return
	}
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}

	httpx.SendSuccess(w, http.StatusOK, user)
}

// Logout closes the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidSessionUser, nil)
		return
	}

	if err := h.svc.Logout(r.Context(), session.ID); err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}
	httpx.SendSuccess(w, http.StatusOK, nil)
}

// UpdatePassword rotates the caller's password and reissues a token. The
// rotation, session close and new session are one transaction.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidSessionUser, nil)
		return
	}

	var req passwordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidRequest("malformed body"), err)
		return
	}
	if req.Password == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("Password"), nil)
		return
	}
	if req.NewPassword == "" {
		httpx.SendError(w, http.StatusBadRequest, apperror.RequiredField("New password"), nil)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		httpx.SendError(w, http.StatusBadRequest, apperror.PasswordMismatch, nil)
		return
	}

	token, err := h.svc.UpdatePassword(r.Context(), userID, req.Password, req.NewPassword, sessionMeta(r))
	if errors.Is(err, ErrInvalidLogin) {
		httpx.SendError(w, http.StatusBadRequest, apperror.InvalidLogin, err)
		return
	}
	if err != nil {
		httpx.SendError(w, http.StatusInternalServerError, apperror.UnableToCompleteRequest, err)
		return
	}

	httpx.SendSuccess(w, http.StatusOK, map[string]any{
		"message": "Password updated successfully",
		"token":   token,
	})
}
