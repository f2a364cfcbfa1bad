// Command obshub runs the observation hub: a federated data-access layer
// over one or more local observation databases, with Prometheus metrics and
// JSON artifact archiving.
//
// Configuration is environment driven:
//
//	OBSHUB_LISTEN_ADDR: HTTP listen address (default :8080)
//	OBSHUB_STORAGE_DRIVER / OBSHUB_SQLITE_PATH / OBSHUB_POSTGRES_DSN:
//	    default database backend (see internal/hub)
//	OBSHUB_BLOB_DRIVER / OBSHUB_BLOB_FS_ROOT / OBSHUB_BLOB_S3_*:
//	    artifact storage backend (see internal/archive)
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"obshub/internal/archive"
	"obshub/internal/hub"
)

type stdLogger struct {
	log *log.Logger
}

func (l stdLogger) Info(msg string, kv ...any) { l.print("INFO", msg, kv) }
func (l stdLogger) Warn(msg string, kv ...any) { l.print("WARN", msg, kv) }

func (l stdLogger) print(level, msg string, kv []any) {
	if l.log == nil {
		return
	}
	args := make([]any, 0, len(kv)+2)
	args = append(args, level, msg)
	args = append(args, kv...)
	l.log.Println(args...)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := stdLogger{log: log.New(os.Stderr, "obshub ", log.LstdFlags)}

	reg := prometheus.NewRegistry()
	svc, err := hub.NewService(
		hub.WithLogger(logger),
		hub.WithMetricsRecorder(hub.NewPrometheusMetricsRecorder(reg)),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobStore, err := archive.Open(ctx)
	if err != nil {
		return err
	}
	archiver := archive.NewArchiver(blobStore, svc.Federated())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/archive/observations", archiveHandler(archiver, logger))

	addr := os.Getenv("OBSHUB_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "blobDriver", string(blobStore.Driver()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// archiveHandler triggers an observation export. The artifact name comes
// from the "name" query parameter and defaults to a timestamp.
func archiveHandler(archiver *archive.Archiver, logger stdLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = time.Now().UTC().Format("20060102T150405Z")
		}
		info, err := archiver.ExportObservations(r.Context(), name, nil)
		if err != nil {
			logger.Warn("archive failed", "name", name, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"` + info.Key + `"}` + "\n"))
	}
}
