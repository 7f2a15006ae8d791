package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// Serve runs srv until ctx is cancelled or the listener fails, then shuts
// it down within grace. A listener failure is returned; a clean stop is nil.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var failed error
	select {
	case <-ctx.Done():
		utils.Logger.Info("Shutting down")
	case failed = <-serveErr:
		utils.Logger.WithError(failed).Error("HTTP server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("HTTP server shutdown failed")
	}
	return failed
}
