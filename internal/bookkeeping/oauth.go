package bookkeeping

import "golang.org/x/oauth2"

// OAuthConfig builds the authorization-code flow configuration for the
// bookkeeping platform. The platform wants client credentials in the form
// body, not in a basic-auth header.
func OAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   defaultBaseURL + "/api/oauth2/auth",
			TokenURL:  defaultBaseURL + "/api/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
