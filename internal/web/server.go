package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/upstream"
)

// Upstream is the completion surface the chat handlers depend on. Tests
// substitute fakes; production code passes *upstream.Client.
type Upstream interface {
	Complete(ctx context.Context, turns []chat.Turn, model string) (*upstream.Response, error)
	StreamComplete(ctx context.Context, turns []chat.Turn, model string) (io.ReadCloser, error)
}

// NewServer creates and configures the Buling HTTP API server.
func NewServer(db *sql.DB, cfg *config.Config, api Upstream, an *analyzer.Analyzer, bind string, port int) *http.Server {
	h := &Handlers{
		db:       db,
		cfg:      cfg,
		api:      api,
		analyzer: an,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("POST /api/chat/stream", h.HandleChatStream)
	mux.HandleFunc("POST /api/inspiration/analyze", h.HandleAnalyze)

	mux.HandleFunc("GET /api/inspirations", h.HandleListInspirations)
	mux.HandleFunc("POST /api/inspirations", h.HandleSaveInspiration)
	mux.HandleFunc("DELETE /api/inspirations", h.HandleDeleteInspirations)
	mux.HandleFunc("POST /api/inspirations/batch", h.HandleBatch)
	mux.HandleFunc("GET /api/inspirations/tags", h.HandleTagCounts)
	mux.HandleFunc("POST /api/inspirations/tags", h.HandleBatchTags)
	mux.HandleFunc("GET /api/inspirations/categories", h.HandleCategoryCounts)
	mux.HandleFunc("POST /api/inspirations/categories", h.HandleBatchCategories)
	mux.HandleFunc("GET /api/inspirations/{id}", h.HandleGetInspiration)
	mux.HandleFunc("PUT /api/inspirations/{id}", h.HandleUpdateInspiration)
	mux.HandleFunc("DELETE /api/inspirations/{id}", h.HandleDeleteInspiration)
	mux.HandleFunc("GET /api/inspirations/{id}/html", h.HandleInspirationHTML)

	mux.HandleFunc("GET /api/chat-sessions", h.HandleListSessions)
	mux.HandleFunc("POST /api/chat-sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/chat-sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /api/chat-sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /api/chat-sessions/{id}/save", h.HandleSaveSession)

	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Buling API running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
