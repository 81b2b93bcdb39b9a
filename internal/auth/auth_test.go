package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticketclose/internal/config"
)

func TestCallbackHandler_DeliversCode(t *testing.T) {
	codes := make(chan string, 1)
	srv := httptest.NewServer(callbackHandler(codes))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/callback?code=abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "close this page") {
		t.Fatalf("unexpected body: %q", body)
	}

	select {
	case code := <-codes:
		if code != "abc123" {
			t.Fatalf("unexpected code: %q", code)
		}
	default:
		t.Fatal("no code delivered")
	}
}

func TestCallbackHandler_MissingCode(t *testing.T) {
	codes := make(chan string, 1)
	srv := httptest.NewServer(callbackHandler(codes))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/callback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	select {
	case code := <-codes:
		t.Fatalf("unexpected code delivered: %q", code)
	default:
	}
}

func TestCallbackHandler_SecondCodeDropped(t *testing.T) {
	codes := make(chan string, 1)
	srv := httptest.NewServer(callbackHandler(codes))
	defer srv.Close()

	for _, code := range []string{"first", "second"} {
		resp, err := http.Get(srv.URL + "/callback?code=" + code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	}

	if code := <-codes; code != "first" {
		t.Fatalf("expected the first code to win, got %q", code)
	}
}

func TestCallbackHandler_Alive(t *testing.T) {
	srv := httptest.NewServer(callbackHandler(make(chan string, 1)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Yup, alive" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWaitForCallback_BadCertificate(t *testing.T) {
	orig := listenAddr
	listenAddr = "127.0.0.1:0"
	defer func() { listenAddr = orig }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := WaitForCallback(ctx, config.WebServer{
		SSLCert: "testdata/does-not-exist.pem",
		SSLKey:  "testdata/does-not-exist.key",
	})
	if err == nil {
		t.Fatal("expected an error for missing TLS material")
	}
}

func TestIsTicketingAuthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"next": null, "results": []}`))
	}))
	defer srv.Close()

	cfg := &config.Config{Ticketing: config.Ticketing{URL: srv.URL}}

	// No credentials stored at all.
	ok, err := isTicketingAuthorized(context.Background(), cfg)
	if err != nil || ok {
		t.Fatalf("expected unauthorized without credentials, got ok=%v err=%v", ok, err)
	}

	cfg.SetTicketingTokens(config.TokenPair{AccessToken: "good"})
	ok, err = isTicketingAuthorized(context.Background(), cfg)
	if err != nil || !ok {
		t.Fatalf("expected authorized, got ok=%v err=%v", ok, err)
	}

	cfg.SetTicketingTokens(config.TokenPair{AccessToken: "stale"})
	ok, err = isTicketingAuthorized(context.Background(), cfg)
	if err != nil || ok {
		t.Fatalf("expected rejected token to read as unauthorized, got ok=%v err=%v", ok, err)
	}
}

func TestIsBookkeepingAuthorized_NoCredentials(t *testing.T) {
	ok, err := isBookkeepingAuthorized(context.Background(), &config.Config{})
	if err != nil || ok {
		t.Fatalf("expected unauthorized without credentials, got ok=%v err=%v", ok, err)
	}
}
