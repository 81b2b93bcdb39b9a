package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleConfig = `{
  "log": "debug",
  "web_server": {
    "ssl_cert": "/etc/ticketclose/cert.pem",
    "ssl_key": "/etc/ticketclose/key.pem"
  },
  "ticketing": {
    "oauth": {
      "client_id": "tick-client",
      "client_secret": "tick-secret",
      "redirect_uri": "https://ticketclose.local/callback"
    },
    "url": "https://tickets.example.org",
    "events": {
      "intro-2026-2027": {
        "split_per_product": true,
        "cost_centers_per_product": [
          {"pattern": "(?i)^camp", "cost_center": "INTRO"},
          {"pattern": ".*", "cost_center": "MISC"}
        ],
        "ignore_products": ["^Free "],
        "gl_account": "8000"
      }
    }
  },
  "bookkeeping": {
    "oauth": {
      "client_id": "book-client",
      "client_secret": "book-secret",
      "redirect_uri": "https://ticketclose.local/callback"
    },
    "gl_accounts": {
      "unassigned_payments": "1302",
      "bookkeeping": "5007"
    },
    "journals": {
      "sales": "0302"
    },
    "cost_centers": {
      "transaction_fees": "TRX"
    },
    "vat_codes": [
      {"code": "VH", "percentage": 21},
      {"code": "VL", "percentage": 9}
    ]
  }
}`

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("writing sample: %v", err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log)
	}
	if cfg.Ticketing.URL != "https://tickets.example.org" {
		t.Fatalf("unexpected url: %q", cfg.Ticketing.URL)
	}

	event, ok := cfg.Ticketing.Events["intro-2026-2027"]
	if !ok {
		t.Fatal("missing event config")
	}
	if !event.SplitPerProduct {
		t.Fatal("expected split_per_product")
	}
	// Rule order must survive the round trip: first match wins.
	if event.CostCenters[0].CostCenter != "INTRO" || event.CostCenters[1].CostCenter != "MISC" {
		t.Fatalf("unexpected rule order: %+v", event.CostCenters)
	}
	if !cfg.Bookkeeping.VATCodes[0].Percentage.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("unexpected VAT percentage: %s", cfg.Bookkeeping.VATCodes[0].Percentage)
	}
	if cfg.Credentials != nil {
		t.Fatalf("expected no credentials, got %+v", cfg.Credentials)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("writing sample: %v", err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	cfg.SetTicketingTokens(TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"})
	cfg.SetBookkeepingTokens(TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"})
	if err := cfg.Write(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	again, err := Read(path)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	tok, ok := again.TicketingToken()
	if !ok || tok != "at-1" {
		t.Fatalf("unexpected ticketing token: %q %v", tok, ok)
	}
	tok, ok = again.BookkeepingToken()
	if !ok || tok != "at-2" {
		t.Fatalf("unexpected bookkeeping token: %q %v", tok, ok)
	}
	if again.Credentials.Ticketing.RefreshToken != "rt-1" {
		t.Fatalf("refresh token lost: %+v", again.Credentials.Ticketing)
	}
	// The rest of the document must survive the credential rewrite.
	if again.Bookkeeping.GLAccounts.Bookkeeping != "5007" {
		t.Fatalf("unexpected gl account: %q", again.Bookkeeping.GLAccounts.Bookkeeping)
	}
	if again.Bookkeeping.CostCenters.TransactionFees != "TRX" {
		t.Fatalf("unexpected cost center: %q", again.Bookkeeping.CostCenters.TransactionFees)
	}
}

func TestTokenAccessors_Empty(t *testing.T) {
	cfg := &Config{}
	if _, ok := cfg.TicketingToken(); ok {
		t.Fatal("expected no ticketing token")
	}
	if _, ok := cfg.BookkeepingToken(); ok {
		t.Fatal("expected no bookkeeping token")
	}
}
