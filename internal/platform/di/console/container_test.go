package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/memory"
	appcfg "github.com/PIUMYOMIN/ekaro-sub001/internal/infra/config"
	shared "github.com/PIUMYOMIN/ekaro-sub001/internal/platform/di/shared"
)

func memoryInfra(t *testing.T, backend string) *shared.Infra {
	t.Helper()
	cfg := &appcfg.Config{DraftBackend: backend, ProductAPIBaseURL: "https://api.ekaro.test"}
	s, _, err := shared.ResolveRuntimeSettings(cfg)
	require.NoError(t, err)
	return &shared.Infra{Config: cfg, Settings: s}
}

func TestNewContainer_MemoryBackend(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryInfra(t, shared.DraftBackendMemory))
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })

	assert.IsType(t, &memory.ProductDraftRepositoryMem{}, c.Ports.store)
	assert.IsType(t, &memory.CategoryRepositoryMem{}, c.Ports.categories)
	assert.Nil(t, c.Ports.notifier)
	require.NotNil(t, c.Registry)

	h := c.Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Firebase Auth 未初期化なら editor routes は 503
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/product-editor/session", nil)
	req.Header.Set("Authorization", "Bearer x")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewContainer_BackendNeedsClient(t *testing.T) {
	_, err := NewContainer(context.Background(), memoryInfra(t, shared.DraftBackendFirestore))
	assert.Error(t, err)

	inf := memoryInfra(t, shared.DraftBackendPostgres)
	_, err = NewContainer(context.Background(), inf)
	assert.Error(t, err)

	_, err = NewContainer(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewContainer_SendGridWiresNotifier(t *testing.T) {
	inf := memoryInfra(t, shared.DraftBackendMemory)
	inf.Settings.SendGridAPIKey = "SG.test"
	inf.Settings.SendGridFrom = "noreply@ekaro.app"

	c, err := NewContainer(context.Background(), inf)
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	assert.NotNil(t, c.Ports.notifier)
}
