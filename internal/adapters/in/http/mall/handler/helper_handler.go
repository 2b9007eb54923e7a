// backend/internal/adapters/in/http/mall/handler/helper_handler.go
package mallHandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"sripavan/internal/adapters/in/http/middleware"
	"sripavan/internal/adapters/out/identity"
	"sripavan/internal/application/storefront"
	usecase "sripavan/internal/application/usecase"
	authuc "sripavan/internal/application/usecase/auth"
	cartdom "sripavan/internal/domain/cart"
	userdom "sripavan/internal/domain/user"
)

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":   "bad_request",
		"message": strings.TrimSpace(msg),
	})
}

// readJSON decodes a single JSON body of at most 1MB.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if dst == nil {
		return errors.New("dst is nil")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// deviceOrFail returns the request's device or answers 500.
func deviceOrFail(w http.ResponseWriter, r *http.Request) *storefront.Device {
	d := middleware.DeviceFrom(r.Context())
	if d == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "device_missing",
			"message": "device middleware is not installed",
		})
	}
	return d
}

// ============================================================
// Error mapping
// ============================================================

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  validation.Errors `json:"fields,omitempty"`
}

// clientProviderCodes are provider rejections caused by the request itself.
var clientProviderCodes = map[string]bool{
	identity.CodeWeakPassword:  true,
	identity.CodeInvalidEmail:  true,
	identity.CodeNoCurrentUser: true,
	"missing-password":         true,
}

// statusOf maps an application error to an HTTP status and a stable code.
func statusOf(err error) (int, string) {
	var (
		verrs    validation.Errors
		unmapped *authuc.UnmappedProviderError
	)
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, authuc.ErrReservedIdentity):
		return http.StatusBadRequest, "reserved_identity"
	case errors.Is(err, cartdom.ErrInvalidItem),
		errors.Is(err, userdom.ErrInvalidDisplayName),
		errors.Is(err, userdom.ErrInvalidPhotoURL):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, usecase.ErrCheckoutEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, usecase.ErrUnsupportedPhotoType):
		return http.StatusBadRequest, "unsupported_photo_type"
	case errors.Is(err, usecase.ErrPhotoTooLarge):
		return http.StatusRequestEntityTooLarge, "photo_too_large"
	case errors.Is(err, authuc.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, authuc.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, authuc.ErrAdminAccessDenied):
		return http.StatusForbidden, "admin_access_denied"
	case errors.Is(err, authuc.ErrDisabledAccount):
		return http.StatusForbidden, "account_disabled"
	case errors.Is(err, authuc.ErrUnknownAccount):
		return http.StatusNotFound, "unknown_account"
	case errors.Is(err, authuc.ErrDuplicateEmail):
		return http.StatusConflict, "duplicate_email"
	case errors.Is(err, authuc.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	case errors.As(err, &unmapped):
		if clientProviderCodes[unmapped.Code] {
			return http.StatusBadRequest, strings.ReplaceAll(unmapped.Code, "-", "_")
		}
		return http.StatusBadGateway, "identity_provider_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// messageOf is the user-facing text for err.
func messageOf(err error) string {
	switch {
	case errors.Is(err, cartdom.ErrInvalidItem):
		return fmt.Sprintf("Invalid cart item. Quantities are limited to %d per item.", cartdom.MaxQuantity)
	case errors.Is(err, userdom.ErrInvalidDisplayName):
		return "Please enter a valid display name."
	case errors.Is(err, userdom.ErrInvalidPhotoURL):
		return "Please use a valid photo URL."
	case errors.Is(err, usecase.ErrCheckoutEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, usecase.ErrUnsupportedPhotoType):
		return "Please upload an image file."
	case errors.Is(err, usecase.ErrPhotoTooLarge):
		return "The photo is too large."
	}
	return authuc.Describe(err)
}

// writeErr answers err with its mapped status. 5xx details stay in the log.
func writeErr(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	code, name := statusOf(err)
	body := errorBody{Error: name, Message: messageOf(err)}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body.Message = "Please check the highlighted fields."
		body.Fields = verrs
	}
	if code >= http.StatusInternalServerError {
		if log != nil {
			log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
		}
		if code == http.StatusInternalServerError {
			body.Message = authuc.GenericErrorMessage
		}
	}
	writeJSON(w, code, body)
}

func nopIfNil(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
