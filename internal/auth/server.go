package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ticketclose/internal/config"
)

// listenAddr is where the callback server binds. Redirect URIs registered on
// the platforms point at port 443, so running requires the privilege to bind
// it.
var listenAddr = ":443"

const shutdownTimeout = 5 * time.Second

var (
	tlsOnce sync.Once
	tlsConf *tls.Config
	tlsErr  error
)

// loadTLS loads the PEM keypair once. Both platform logins within one run
// reuse the same material.
func loadTLS(ws config.WebServer) (*tls.Config, error) {
	tlsOnce.Do(func() {
		cert, err := tls.LoadX509KeyPair(ws.SSLCert, ws.SSLKey)
		if err != nil {
			tlsErr = fmt.Errorf("auth: loading TLS keypair: %w", err)
			return
		}
		tlsConf = &tls.Config{Certificates: []tls.Certificate{cert}}
	})
	return tlsConf, tlsErr
}

// callbackHandler routes the one-shot login server. The first authorization
// code received on /callback is delivered on codes; later ones are dropped.
func callbackHandler(codes chan<- string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "Yup, alive")
	})
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprint(w, "OK. You can close this page now.")
	})
	return r
}

// WaitForCallback serves the OAuth2 redirect endpoint over TLS and blocks
// until one authorization code arrives. The server is shut down before
// returning; it exists only for the duration of a single login.
func WaitForCallback(ctx context.Context, ws config.WebServer) (string, error) {
	conf, err := loadTLS(ws)
	if err != nil {
		return "", err
	}

	codes := make(chan string, 1)
	srv := &http.Server{
		Addr:      listenAddr,
		Handler:   callbackHandler(codes),
		TLSConfig: conf,
	}

	serveErrs := make(chan error, 1)
	go func() {
		err := srv.ListenAndServeTLS("", "")
		if !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case code := <-codes:
		return code, nil
	case err := <-serveErrs:
		return "", fmt.Errorf("auth: callback server: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
