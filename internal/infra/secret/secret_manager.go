// backend/internal/infra/secret/secret_manager.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotConfigured = errors.New("secret: not configured")
	ErrNotFound      = errors.New("secret: not found")
	ErrEmpty         = errors.New("secret: payload is empty")
)

// ManagerLoader reads the latest version of Secret Manager secrets.
type ManagerLoader struct {
	Client    *secretmanager.Client
	ProjectID string

	access func(ctx context.Context, name string) ([]byte, error)
}

func NewManagerLoader(ctx context.Context, projectID string) (*ManagerLoader, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	l := &ManagerLoader{Client: c, ProjectID: pid}
	l.access = l.accessVersion
	return l, nil
}

// Load returns the payload of secretID (or a full "projects/..." name),
// with surrounding whitespace removed.
func (l *ManagerLoader) Load(ctx context.Context, secretID string) (string, error) {
	if l == nil || l.access == nil {
		return "", ErrNotConfigured
	}
	name := versionName(l.ProjectID, secretID)
	if name == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}

	data, err := l.access(ctx, name)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("secret: access %s: %w", name, err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	return v, nil
}

func (l *ManagerLoader) accessVersion(ctx context.Context, name string) ([]byte, error) {
	res, err := l.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Payload == nil {
		return nil, nil
	}
	return res.Payload.Data, nil
}

func (l *ManagerLoader) Close() error {
	if l == nil || l.Client == nil {
		return nil
	}
	return l.Client.Close()
}

func versionName(projectID, secretID string) string {
	id := strings.TrimSpace(secretID)
	switch {
	case id == "":
		return ""
	case strings.HasPrefix(id, "projects/"):
		if !strings.Contains(id, "/versions/") {
			id += "/versions/latest"
		}
		return id
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", strings.TrimSpace(projectID), id)
}
