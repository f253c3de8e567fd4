// backend/internal/infra/secrets/secret_manager.go
//
// Responsibility:
// - Secret Manager から最新バージョンの値を読み出す（商品 API トークンなど）。
// - 空値・未設定は明示的なエラーにする。
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotConfigured = errors.New("secrets: not configured")
	ErrNotFound      = errors.New("secrets: secret not found")
	ErrEmpty         = errors.New("secrets: secret payload is empty")
)

// versionAccessor is the subset of *secretmanager.Client used here.
type versionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

type Provider struct {
	client    versionAccessor
	ProjectID string
}

var _ versionAccessor = (*secretmanager.Client)(nil)

func NewProvider(client *secretmanager.Client, projectID string) *Provider {
	p := &Provider{ProjectID: strings.TrimSpace(projectID)}
	if client != nil {
		p.client = client
	}
	return p
}

// SecretName accepts a bare secret id or a full resource name.
func (p *Provider) SecretName(secretID string) string {
	secretID = strings.TrimSpace(secretID)
	if strings.HasPrefix(secretID, "projects/") {
		if strings.Contains(secretID, "/versions/") {
			return secretID
		}
		return secretID + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.ProjectID, secretID)
}

// Access returns the latest value of secretID, trimmed.
func (p *Provider) Access(ctx context.Context, secretID string) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(secretID) == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}
	if p.ProjectID == "" && !strings.HasPrefix(strings.TrimSpace(secretID), "projects/") {
		return "", fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}

	res, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: p.SecretName(secretID)})
	if status.Code(err) == codes.NotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	if err != nil {
		return "", err
	}
	if res == nil || res.GetPayload() == nil {
		return "", ErrEmpty
	}
	v := strings.TrimSpace(string(res.GetPayload().GetData()))
	if v == "" {
		return "", ErrEmpty
	}
	return v, nil
}
