// Package config reads and writes the JSON configuration document. The
// document round-trips losslessly: the program rewrites it after OAuth logins
// to store fresh token pairs.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Config is the root configuration document.
type Config struct {
	// Log is a slog level name: debug, info, warn or error.
	Log string `json:"log"`
	// WebServer configures the local OAuth2 callback server.
	WebServer WebServer `json:"web_server"`
	// Ticketing configures the ticketing platform.
	Ticketing Ticketing `json:"ticketing"`
	// Bookkeeping configures the bookkeeping platform.
	Bookkeeping Bookkeeping `json:"bookkeeping"`
	// Credentials holds authorized token pairs. Written by the program,
	// not meant to be edited by hand.
	Credentials *Credentials `json:"credentials,omitempty"`
}

// WebServer holds the TLS material for the callback server. OAuth2 redirect
// URIs require HTTPS.
type WebServer struct {
	SSLCert string `json:"ssl_cert"`
	SSLKey  string `json:"ssl_key"`
}

// OAuth2 holds a client registration on one of the platforms.
type OAuth2 struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// RedirectURI must match the registration. The callback path served
	// locally is /callback.
	RedirectURI string `json:"redirect_uri"`
}

// TokenPair is an authorized OAuth2 access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Credentials holds the token pairs for both platforms.
type Credentials struct {
	Ticketing   *TokenPair `json:"ticketing,omitempty"`
	Bookkeeping *TokenPair `json:"bookkeeping,omitempty"`
}

// Ticketing is the ticketing-platform section.
type Ticketing struct {
	OAuth OAuth2 `json:"oauth"`
	// URL of the platform instance. Must not end with a slash.
	URL string `json:"url"`
	// Events holds per-event classification rules, keyed by the event's
	// short form, e.g. intro-2024-2025.
	Events map[string]EventConfig `json:"events"`
}

// EventConfig holds the classification rules for one event.
type EventConfig struct {
	// SplitPerProduct books one ledger line per product instead of one
	// combined line. For most events this is false; notably for the
	// introduction it is true.
	SplitPerProduct bool `json:"split_per_product"`
	// CostCenters maps product-name patterns to cost-center codes. The
	// first matching pattern wins, so this is an ordered list rather than
	// an object.
	CostCenters []CostCenterRule `json:"cost_centers_per_product"`
	// IgnoreProducts are product-name patterns excluded from booking,
	// e.g. free add-ons.
	IgnoreProducts []string `json:"ignore_products,omitempty"`
	// GLAccount is the code of the GL account revenue is booked on.
	GLAccount string `json:"gl_account"`
	// VATCode is the code used for the combined line. Required when
	// SplitPerProduct is false, unused otherwise.
	VATCode string `json:"vat_code,omitempty"`
}

// CostCenterRule maps a product-name regex to a cost-center code.
type CostCenterRule struct {
	Pattern    string `json:"pattern"`
	CostCenter string `json:"cost_center"`
}

// Bookkeeping is the bookkeeping-platform section.
type Bookkeeping struct {
	OAuth OAuth2 `json:"oauth"`
	// GLAccounts holds the fixed GL account codes.
	GLAccounts GLAccounts `json:"gl_accounts"`
	// Journals holds the journal codes.
	Journals Journals `json:"journals"`
	// CostCenters holds the fixed cost-center codes.
	CostCenters CostCenters `json:"cost_centers"`
	// VATCodes maps the platform's VAT codes to their percentages, used to
	// pick the code matching a product's tax rate.
	VATCodes []VATCode `json:"vat_codes"`
}

// GLAccounts holds the fixed general-ledger account codes.
type GLAccounts struct {
	// UnassignedPayments is the holding account, e.g. 1302.
	UnassignedPayments string `json:"unassigned_payments"`
	// Bookkeeping is the account transaction fees are booked on, e.g. 5007.
	Bookkeeping string `json:"bookkeeping"`
}

// Journals holds the bookkeeping journal codes.
type Journals struct {
	// Sales is the sales journal, e.g. 0302.
	Sales string `json:"sales"`
}

// CostCenters holds the fixed cost-center codes.
type CostCenters struct {
	// TransactionFees is the cost center fee lines are attributed to,
	// e.g. TRX.
	TransactionFees string `json:"transaction_fees"`
}

// VATCode pairs a VAT code with its percentage, e.g. VH and 21.
type VATCode struct {
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Read loads the configuration from disk.
func Read(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Write stores the configuration back to disk, pretty-printed.
func (c *Config) Write(path string) error {
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: serializing: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// SetTicketingTokens stores a fresh ticketing token pair.
func (c *Config) SetTicketingTokens(pair TokenPair) {
	if c.Credentials == nil {
		c.Credentials = &Credentials{}
	}
	c.Credentials.Ticketing = &pair
}

// SetBookkeepingTokens stores a fresh bookkeeping token pair.
func (c *Config) SetBookkeepingTokens(pair TokenPair) {
	if c.Credentials == nil {
		c.Credentials = &Credentials{}
	}
	c.Credentials.Bookkeeping = &pair
}

// TicketingToken returns the stored ticketing access token, if any.
func (c *Config) TicketingToken() (string, bool) {
	if c.Credentials == nil || c.Credentials.Ticketing == nil {
		return "", false
	}
	return c.Credentials.Ticketing.AccessToken, true
}

// BookkeepingToken returns the stored bookkeeping access token, if any.
func (c *Config) BookkeepingToken() (string, bool) {
	if c.Credentials == nil || c.Credentials.Bookkeeping == nil {
		return "", false
	}
	return c.Credentials.Bookkeeping.AccessToken, true
}
