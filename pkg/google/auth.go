package google

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

var ErrUnauthenticated = errors.New("member is unauthenticated, Google authentication is required")

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	tokens      TokenRepository
	oauthConfig *oauth2.Config
	host        string
}

func NewGoogleAuth(tokens TokenRepository, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
	return &GoogleAuth{tokens: tokens, oauthConfig: oauthConfig, host: cfg.Host}
}

func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	memberId, err := group.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "Member required", "set the X-Member-Id header")
		return
	}

	stateNonce := uuid.NewString()
	if err := g.tokens.StoreNonce(r.Context(), memberId, stateNonce); err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	finalUrl := g.safeFinalUrl(r.URL.Query().Get("finalUrl"))
	log.Tracef("Redirecting member %s to Google auth URL", memberId)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	finalUrl, nonce, ok := strings.Cut(r.FormValue("state"), "|")
	finalUrl = g.safeFinalUrl(finalUrl)
	if !ok || nonce == "" || code == "" {
		log.Debug("Google auth callback without code or state")
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	token, err := g.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	stored, err := g.tokens.StoreToken(r.Context(), nonce, token)
	if err != nil || !stored {
		log.Errorf("unable to store Google auth token for nonce (stored=%t): %v", stored, err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debug("Stored Google auth token")
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	memberId, err := group.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "Member required", "set the X-Member-Id header")
		return
	}
	if err := g.tokens.DeleteToken(r.Context(), memberId); err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// client returns an HTTP client authorized as the member, refreshing the token when needed.
func (g *GoogleAuth) client(ctx context.Context, memberId uuid.UUID) (*http.Client, error) {
	token, err := g.tokens.GetToken(ctx, memberId)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrUnauthenticated
	}
	return g.oauthConfig.Client(context.WithoutCancel(ctx), token), nil
}

// safeFinalUrl only lets the flow return to this application.
func (g *GoogleAuth) safeFinalUrl(finalUrl string) string {
	if strings.HasPrefix(finalUrl, "/") && !strings.HasPrefix(finalUrl, "//") {
		return g.host + finalUrl
	}
	if g.host != "" && strings.HasPrefix(finalUrl, g.host) {
		return finalUrl
	}
	return g.host + "/"
}
