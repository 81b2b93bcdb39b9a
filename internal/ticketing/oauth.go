package ticketing

import "golang.org/x/oauth2"

// OAuthConfig builds the authorization-code flow configuration for a platform
// instance at baseURL. The platform authenticates the token exchange with
// HTTP basic auth.
func OAuthConfig(baseURL, clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"read", "write"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   baseURL + "/api/v1/oauth/authorize",
			TokenURL:  baseURL + "/api/v1/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
