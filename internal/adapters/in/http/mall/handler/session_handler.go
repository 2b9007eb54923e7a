// backend/internal/adapters/in/http/mall/handler/session_handler.go
package mallHandler

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	userdom "sripavan/internal/domain/user"
)

// ============================================================
// Requests
// ============================================================

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (r signUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.DisplayName, validation.RuneLength(0, userdom.MaxDisplayNameLength)),
	)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

func (r signInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r forgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
	)
}

type profileRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

func (r profileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.RuneLength(0, userdom.MaxDisplayNameLength)),
		validation.Field(&r.PhotoURL, validation.Length(0, userdom.MaxPhotoURLLength), is.URL),
	)
}

// ============================================================
// Handler
// ============================================================

// SessionHandler serves the identity endpoints of the device session.
type SessionHandler struct {
	log *zap.SugaredLogger
}

func NewSessionHandler(logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{log: nopIfNil(logger).Named("session_handler")}
}

// GET /mall/me/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, d.Session.Snapshot())
}

// POST /mall/sign-up
func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req signUpRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	if err := d.Session.SignUp(r.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, d.Session.Snapshot())
}

// POST /mall/sign-in
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req signInRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	if _, err := d.Session.SignIn(r.Context(), req.Email, req.Password, req.Admin); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Session.Snapshot())
}

// POST /mall/sign-out
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	if err := d.Session.LogOut(r.Context()); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Session.Snapshot())
}

// POST /mall/forgot-password
func (h *SessionHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req forgotPasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	if err := d.Session.ForgotPassword(r.Context(), req.Email); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// PATCH /mall/me/profile
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req profileRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	patch := userdom.ProfilePatch{DisplayName: req.DisplayName, PhotoURL: req.PhotoURL}
	if err := d.Session.UpdateProfile(r.Context(), patch); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Session.Snapshot())
}
