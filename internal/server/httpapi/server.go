// Package httpapi exposes the paste store as a JSON-over-HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pastekeeper/internal/logging"
)

type HTTPServer struct {
	address   string
	logger    logging.Logger
	handler   http.Handler
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us UserService, ps PasteService, secretKey string) (*HTTPServer, error) {
	s := &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
	s.handler = s.routes(us, ps)
	return s, nil
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.handler,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
