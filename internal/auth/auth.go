// Package auth checks that both platforms have working access tokens and
// runs the interactive OAuth2 authorization flow when they do not.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"ticketclose/internal/bookkeeping"
	"ticketclose/internal/config"
	"ticketclose/internal/ticketing"
)

// Ensure makes sure both platforms have a working access token, asking the
// user to log in where needed. Fresh token pairs are stored on cfg; the
// caller is responsible for writing the config back to disk.
func Ensure(ctx context.Context, cfg *config.Config) error {
	slog.Info("checking authorizations")

	if err := ensureBookkeeping(ctx, cfg); err != nil {
		return err
	}
	if err := ensureTicketing(ctx, cfg); err != nil {
		return err
	}

	slog.Info("all authorizations are present")
	return nil
}

// isTicketingAuthorized reports whether the stored ticketing credentials
// still work, probing with the cheapest authenticated call.
func isTicketingAuthorized(ctx context.Context, cfg *config.Config) (bool, error) {
	token, ok := cfg.TicketingToken()
	if !ok {
		return false, nil
	}

	slog.Debug("checking if ticketing credentials still work")
	client := ticketing.New(cfg.Ticketing.URL, token)
	_, err := client.Organizers(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ticketing.ErrUnauthorized):
		slog.Info("ticketing credentials present, but no longer valid")
		return false, nil
	default:
		return false, err
	}
}

func ensureTicketing(ctx context.Context, cfg *config.Config) error {
	authorized, err := isTicketingAuthorized(ctx, cfg)
	if err != nil {
		return err
	}
	if authorized {
		return nil
	}

	slog.Info("no ticketing token pair available, need to authorize")
	oauthCfg := ticketing.OAuthConfig(
		cfg.Ticketing.URL,
		cfg.Ticketing.OAuth.ClientID,
		cfg.Ticketing.OAuth.ClientSecret,
		cfg.Ticketing.OAuth.RedirectURI,
	)

	pair, err := login(ctx, oauthCfg, cfg.WebServer)
	if err != nil {
		return fmt.Errorf("auth: ticketing login: %w", err)
	}
	slog.Info("ticketing login successful")

	cfg.SetTicketingTokens(pair)
	return nil
}

// isBookkeepingAuthorized reports whether the stored bookkeeping credentials
// still work, probing with the division lookup.
func isBookkeepingAuthorized(ctx context.Context, cfg *config.Config) (bool, error) {
	token, ok := cfg.BookkeepingToken()
	if !ok {
		return false, nil
	}

	slog.Debug("checking if bookkeeping credentials still work")
	client := bookkeeping.New(token)
	_, err := client.AccountingDivision(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bookkeeping.ErrUnauthorized):
		slog.Info("bookkeeping credentials present, but no longer valid")
		return false, nil
	default:
		return false, err
	}
}

func ensureBookkeeping(ctx context.Context, cfg *config.Config) error {
	authorized, err := isBookkeepingAuthorized(ctx, cfg)
	if err != nil {
		return err
	}
	if authorized {
		return nil
	}

	slog.Info("no bookkeeping token pair available, need to authorize")
	oauthCfg := bookkeeping.OAuthConfig(
		cfg.Bookkeeping.OAuth.ClientID,
		cfg.Bookkeeping.OAuth.ClientSecret,
		cfg.Bookkeeping.OAuth.RedirectURI,
	)

	pair, err := login(ctx, oauthCfg, cfg.WebServer, oauth2.SetAuthURLParam("force_login", "0"))
	if err != nil {
		return fmt.Errorf("auth: bookkeeping login: %w", err)
	}
	slog.Info("bookkeeping login successful")

	cfg.SetBookkeepingTokens(pair)
	return nil
}

// login runs one authorization-code flow: print the login URL, wait for the
// local callback to capture the code, and exchange it for a token pair.
func login(ctx context.Context, oauthCfg *oauth2.Config, ws config.WebServer, opts ...oauth2.AuthCodeOption) (config.TokenPair, error) {
	slog.Info("please open the following URL and log in", "url", oauthCfg.AuthCodeURL("", opts...))

	code, err := WaitForCallback(ctx, ws)
	if err != nil {
		return config.TokenPair{}, err
	}
	slog.Info("received login callback")

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return config.TokenPair{}, err
	}
	return config.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
