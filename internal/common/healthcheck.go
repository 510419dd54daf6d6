package common

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/khanghh/alumnet/params"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// StartHealthCheckServer serves liveness, readiness and metrics on a separate
// port until ctx is cancelled. alumniDB and rdb may be nil.
func StartHealthCheckServer(ctx context.Context, done chan struct{}, db *gorm.DB, alumniDB *sql.DB, rdb redis.UniversalClient) {
	defer close(done)
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(pingCtx) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if alumniDB != nil && alumniDB.PingContext(pingCtx) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if _, err := rdb.Ping(pingCtx).Result(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", MetricsHandler())

	server := &http.Server{
		Addr:    params.HealthCheckServerAddr,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		slog.Error("Health check server stopped", "error", err)
	}
}
