package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ValidateFunc checks an ID token signature, expiry and audience.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleUser is the identity Google vouches for.
type GoogleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleAuth resolves Google identities from an OAuth code or from a Google
// Identity Services credential.
type GoogleAuth struct {
	config      *oauth2.Config
	userInfoURL string
	validate    ValidateFunc
}

// NewGoogleAuth returns nil when Google sign-in is not configured.
func NewGoogleAuth(clientID, clientSecret, redirectURL string) *GoogleAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		validate:    idtoken.Validate,
	}
}

func (g *GoogleAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for the user's Google profile.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (GoogleUser, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("exchange code: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	var gu GoogleUser
	if err := decode(resp, &gu); err != nil {
		return GoogleUser{}, fmt.Errorf("read user info: %w", err)
	}
	return gu, nil
}

// VerifyCredential validates a Google Identity Services ID token and returns
// its identity. The token must be issued for this client and carry a verified
// email.
func (g *GoogleAuth) VerifyCredential(ctx context.Context, credential string) (GoogleUser, error) {
	payload, err := g.validate(ctx, credential, g.config.ClientID)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("verify credential: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return GoogleUser{}, fmt.Errorf("credential carries no email")
	}
	if !claimTrue(payload.Claims["email_verified"]) {
		return GoogleUser{}, fmt.Errorf("google email not verified")
	}
	sub := payload.Subject
	if sub == "" {
		sub, _ = payload.Claims["sub"].(string)
	}
	name, _ := payload.Claims["name"].(string)
	return GoogleUser{ID: sub, Email: email, Name: name}, nil
}

// claimTrue accepts email_verified as a JSON bool or the string "true".
func claimTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func decode(resp *http.Response, v interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google returned %d: %s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, v)
}
