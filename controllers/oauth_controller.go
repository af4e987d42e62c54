package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/coachmybody/server/config"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

const oauthStateTTL = 10 * time.Minute

// OAuthController exchanges social login codes for service tokens.
type OAuthController struct {
	users  *services.UserService
	states *utils.StateStore
	cfg    config.AppConfig
	client *http.Client
}

func NewOAuthController(users *services.UserService, states *utils.StateStore, cfg config.AppConfig) *OAuthController {
	return &OAuthController{
		users:  users,
		states: states,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type oauthUser struct {
	ID           string
	Email        string
	Nickname     string
	ProfileImage string
}

// OAuthRedirect generates a provider-specific authorization URL.
func (o *OAuthController) OAuthRedirect(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	cfg, err := o.oauthConfig(provider)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	state := uuid.NewString()
	o.states.Save(ctx.Request.Context(), state, oauthStateTTL)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code, registers the identity on
// first sight and logs it in.
func (o *OAuthController) OAuthCallback(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		badRequest(ctx, "missing code or state")
		return
	}
	if !o.states.Consume(ctx.Request.Context(), state) {
		badRequest(ctx, "invalid or expired state")
		return
	}
	cfg, err := o.oauthConfig(provider)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	reqCtx := context.WithValue(ctx.Request.Context(), oauth2.HTTPClient, o.client)
	token, err := cfg.Exchange(reqCtx, code)
	if err != nil {
		badRequest(ctx, "failed to exchange code")
		return
	}

	info, err := o.fetchOAuthUser(reqCtx, provider, token)
	if err != nil {
		respondError(ctx, fmt.Errorf("fetch %s profile: %w", provider, err))
		return
	}

	pair, err := o.users.SocialLogin(ctx.Request.Context(), services.RegisterRequest{
		SocialID:     provider + ":" + info.ID,
		SocialType:   provider,
		Email:        info.Email,
		Nickname:     info.Nickname,
		ProfileImage: info.ProfileImage,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, pair)
}

func (o *OAuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	switch provider {
	case "github":
		if o.cfg.GitHubClientID == "" || o.cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     o.cfg.GitHubClientID,
			ClientSecret: o.cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", o.cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if o.cfg.GoogleClientID == "" || o.cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     o.cfg.GoogleClientID,
			ClientSecret: o.cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", o.cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (o *OAuthController) fetchOAuthUser(ctx context.Context, provider string, token *oauth2.Token) (*oauthUser, error) {
	switch provider {
	case "github":
		return o.fetchGitHubUser(ctx, token)
	case "google":
		return o.fetchGoogleUser(ctx, token)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (o *OAuthController) fetchGitHubUser(ctx context.Context, token *oauth2.Token) (*oauthUser, error) {
	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := o.getJSON(ctx, "https://api.github.com/user", token, &payload); err != nil {
		return nil, err
	}
	return &oauthUser{
		ID:           fmt.Sprintf("%d", payload.ID),
		Email:        payload.Email,
		Nickname:     fallback(payload.Name, payload.Login),
		ProfileImage: payload.AvatarURL,
	}, nil
}

func (o *OAuthController) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*oauthUser, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := o.getJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", token, &payload); err != nil {
		return nil, err
	}
	return &oauthUser{
		ID:           payload.ID,
		Email:        payload.Email,
		Nickname:     fallback(payload.Name, payload.Email),
		ProfileImage: payload.Picture,
	}, nil
}

func (o *OAuthController) getJSON(ctx context.Context, url string, token *oauth2.Token, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
