// backend/cmd/console/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/middleware"
	appcfg "github.com/PIUMYOMIN/ekaro-sub001/internal/infra/config"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
	consoleDI "github.com/PIUMYOMIN/ekaro-sub001/internal/platform/di/console"
	shared "github.com/PIUMYOMIN/ekaro-sub001/internal/platform/di/shared"
)

var bootLog = logger.For("boot")

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := h.v.Load()
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.(http.Handler).ServeHTTP(w, r)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func main() {
	ctx := context.Background()

	cfg, err := appcfg.Load()
	if err != nil {
		bootLog.WithError(err).Fatal("config load failed")
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	// TracerProvider は未設定 (no-op)。exporter を足すときはここで otel.SetTracerProvider する。
	otel.SetTextMapPropagator(propagation.TraceContext{})

	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "8080"
	}

	// ─────────────────────────────────────────────────────────────
	// Start listening ASAP with lightweight mux (healthz only)
	// ─────────────────────────────────────────────────────────────
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthz)

	switcher := newAtomicHandler(middleware.CORS(cfg.CORSOrigin)(healthMux))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: switcher,
		// multipart 画像アップロードと submit (upload + API) のため長め
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Container lifetime management
	// ─────────────────────────────────────────────────────────────
	var contHolder atomic.Pointer[consoleDI.Container]
	shuttingDown := make(chan struct{})

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c

		close(shuttingDown)
		bootLog.WithField("signal", sig.String()).Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			bootLog.WithError(err).Error("server shutdown error")
		}

		// flush editor sessions, then close clients
		if cont := contHolder.Swap(nil); cont != nil {
			cont.Shutdown(shutdownCtx)
			if err := cont.Close(); err != nil {
				bootLog.WithError(err).Warn("container close error")
			}
		}

		close(idleConnsClosed)
	}()

	// Start server NOW (Cloud Run startup requirement)
	go func() {
		bootLog.WithField("port", port).Info("listening (console)")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			bootLog.WithError(err).Fatal("server error")
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// Heavy DI init in background; then swap handler to the console router
	// ─────────────────────────────────────────────────────────────
	go func() {
		initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		infra, err := shared.NewInfra(initCtx, cfg)
		if err != nil {
			bootLog.WithError(err).Warn("shared infra init failed (serving /healthz only)")
			return
		}

		cont, err := consoleDI.NewContainer(initCtx, infra)
		if err != nil {
			_ = infra.Close()
			bootLog.WithError(err).Warn("console di init failed (serving /healthz only)")
			return
		}

		select {
		case <-shuttingDown:
			_ = cont.Close()
			return
		default:
		}

		contHolder.Store(cont)
		if cont.Infra.FirebaseAuth == nil {
			bootLog.Warn("FirebaseAuth is nil: editor routes answer 503")
		}

		// router は /healthz を持つ
		switcher.Store(cont.Router())
		bootLog.Info("handler switched to console router")
	}()

	<-idleConnsClosed
	bootLog.Info("server stopped")
}
