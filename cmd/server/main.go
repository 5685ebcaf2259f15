package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/collab"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/config"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/export"
	mw "github.com/celestialsphere/celestialsphere/backend-go/internal/middleware"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/project"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	projectService := project.NewService(store)
	projectHandler := project.NewHandler(projectService, cfg.MaxDocumentBytes)

	// Document saver for the collaboration hub
	docSaver := func(ctx context.Context, projectID string, doc *document.Document) error {
		_, err := projectService.SaveDocument(ctx, projectID, doc)
		return err
	}

	hub := collab.NewHub(projectService.LatestDocument, docSaver, engine.Options{
		SnapThreshold:     cfg.SnapThreshold,
		PickThreshold:     cfg.PickThreshold,
		RotateSensitivity: cfg.RotateSensitivity,
	})
	go hub.Run()

	exportHandler := export.NewHandler(cfg.MaxDocumentBytes)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Export endpoints take the document as the request body
	r.HandleFunc("/export/svg", exportHandler.ExportSVG).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}/snapshot", projectHandler.SaveSnapshot).Methods("PUT", "OPTIONS")
	api.HandleFunc("/projects/{projectId}/snapshots/latest", projectHandler.GetLatestSnapshot).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		slog.Info("saving all documents...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore uses Postgres when DATABASE_URL is set and a data directory
// otherwise.
func openStore(ctx context.Context, cfg *config.Config) (project.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		store, err := project.NewDirStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using directory store", "dir", cfg.DataDir)
		return store, func() {}, nil
	}

	pool, err := project.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := project.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("using postgres store")
	return store, pool.Close, nil
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, origins []string) {
	projectID := mux.Vars(r)["projectId"]
	if err := typeid.Validate(projectID, typeid.PrefixProject); err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, displayName, projectID, clientID)

	if err := hub.Register(r.Context(), client); err != nil {
		slog.Warn("join project", "project", projectID, "error", err)
		conn.Close(websocket.StatusPolicyViolation, "project unavailable")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
