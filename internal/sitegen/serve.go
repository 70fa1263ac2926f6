package sitegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// NewPreviewHandler serves a generated site directory.
func NewPreviewHandler(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("site directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site directory %s is not a directory", dir)
	}
	return http.FileServer(http.Dir(dir)), nil
}

// Serve previews a generated site on addr until ctx is cancelled.
func Serve(ctx context.Context, dir, addr string, logger *slog.Logger) error {
	handler, err := NewPreviewHandler(dir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving site preview", "dir", dir, "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
