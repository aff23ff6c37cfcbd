package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"pollhub/backend/global"
	"time"
)

// Run serves handler until ctx is cancelled, then shuts down within shutdownTimeout.
func Run(ctx context.Context, host string, port int, handler http.Handler, shutdownTimeout time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, handler, shutdownTimeout)
}

func Serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		global.Logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	global.Logger.Info().Msg("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
