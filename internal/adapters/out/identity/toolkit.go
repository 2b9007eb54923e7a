// backend/internal/adapters/out/identity/toolkit.go
package identity

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	authuc "sripavan/internal/application/usecase/auth"
)

// SignInResult is the outcome of a password check.
type SignInResult struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

// PasswordAuth is the password side of the identity provider.
type PasswordAuth interface {
	VerifyPassword(ctx context.Context, email, password string) (*SignInResult, error)
	SendPasswordReset(ctx context.Context, email string) error
}

// Toolkit calls the Identity Toolkit relying-party endpoints with the
// project's web API key.
type Toolkit struct {
	svc *identitytoolkit.Service
}

func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("identity: web API key is empty")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Toolkit{svc: svc}, nil
}

func (t *Toolkit) VerifyPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toolkitError(err)
	}
	return &SignInResult{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		IDToken:     resp.IdToken,
	}, nil
}

// SendPasswordReset asks the provider to mail a reset link.
func (t *Toolkit) SendPasswordReset(ctx context.Context, email string) error {
	_, err := t.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		Email:       strings.TrimSpace(email),
		RequestType: "PASSWORD_RESET",
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError(err)
	}
	return nil
}

// toolkitError turns a googleapi error into a ProviderError.
// The REST API reports the reason as the message, sometimes followed by
// " : <detail>".
func toolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &authuc.ProviderError{Code: CodeNetwork, Err: err}
	}
	msg := gerr.Message
	if msg == "" && len(gerr.Errors) > 0 {
		msg = gerr.Errors[0].Message
	}
	return &authuc.ProviderError{Code: toolkitCode(msg), Err: err}
}

func toolkitCode(msg string) string {
	reason := strings.TrimSpace(msg)
	if i := strings.IndexAny(reason, " :"); i >= 0 {
		reason = reason[:i]
	}
	switch reason {
	case "EMAIL_NOT_FOUND":
		return authuc.CodeUnknownAccount
	case "INVALID_PASSWORD":
		return authuc.CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS":
		return authuc.CodeInvalidCredential
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return authuc.CodeTooManyRequests
	case "USER_DISABLED":
		return authuc.CodeDisabledAccount
	case "EMAIL_EXISTS":
		return authuc.CodeEmailInUse
	case "":
		return CodeInternal
	}
	return strings.ToLower(strings.ReplaceAll(reason, "_", "-"))
}
