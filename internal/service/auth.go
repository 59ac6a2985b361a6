package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/sumire/lostfound/internal/domain"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AuthConfig holds OAuth configuration.
type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	JWTSecret          string
	FrontendURL        string
}

// identity is the provider-neutral profile returned by an OAuth userinfo call.
type identity struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

type oauthProvider struct {
	config *oauth2.Config
	fetch  func(ctx context.Context, accessToken string) (*identity, error)
}

// AuthService is the identity provider for the API: it signs users in through
// OAuth and issues the JWTs that carry their user id.
type AuthService struct {
	users     UserStore
	jwtSecret []byte
	providers map[domain.AuthProvider]oauthProvider
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		providers: map[domain.AuthProvider]oauthProvider{
			domain.AuthProviderGoogle: {
				config: &oauth2.Config{
					ClientID:     cfg.GoogleClientID,
					ClientSecret: cfg.GoogleClientSecret,
					Endpoint:     googleOAuth.Endpoint,
					Scopes:       []string{"openid", "profile", "email"},
					RedirectURL:  cfg.FrontendURL + "/auth/google/callback",
				},
				fetch: fetchGoogleIdentity,
			},
			domain.AuthProviderGitHub: {
				config: &oauth2.Config{
					ClientID:     cfg.GitHubClientID,
					ClientSecret: cfg.GitHubClientSecret,
					Endpoint:     github.Endpoint,
					Scopes:       []string{"user:email"},
					RedirectURL:  cfg.FrontendURL + "/auth/github/callback",
				},
				fetch: fetchGitHubIdentity,
			},
		},
	}
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthURL returns the consent page URL for provider.
func (s *AuthService) AuthURL(provider domain.AuthProvider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
	}
	return p.config.AuthCodeURL(state), nil
}

// Callback exchanges an authorization code, upserts the user and returns a JWT pair.
func (s *AuthService) Callback(ctx context.Context, provider domain.AuthProvider, code string) (*domain.User, *TokenPair, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%s token exchange: %w", provider, err)
	}

	info, err := p.fetch(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s user info: %w", provider, err)
	}

	user, err := s.users.Upsert(ctx, domain.User{
		Provider:    provider,
		ProviderID:  info.ProviderID,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   strPtr(info.AvatarURL),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upsert %s user: %w", provider, err)
	}

	pair, err := s.IssueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// ValidateToken validates a JWT access token and returns the user ID.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// RefreshAccessToken validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	userID, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return s.IssueTokens(userID)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) parse(tokenString, wantType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s token: %v", domain.ErrUnauthorized, wantType, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return 0, domain.ErrUnauthorized
	}

	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, domain.ErrUnauthorized
	}

	return int64(userIDFloat), nil
}

// IssueTokens signs a fresh access/refresh pair for userID.
func (s *AuthService) IssueTokens(userID int64) (*TokenPair, error) {
	now := time.Now()

	accessStr, err := s.sign(userID, tokenTypeAccess, now, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshStr, err := s.sign(userID, tokenTypeRefresh, now, refreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}

func (s *AuthService) sign(userID int64, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	str, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return str, nil
}

func fetchGoogleIdentity(ctx context.Context, accessToken string) (*identity, error) {
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken, &info); err != nil {
		return nil, err
	}
	return &identity{ProviderID: info.ID, Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}

func fetchGitHubIdentity(ctx context.Context, accessToken string) (*identity, error) {
	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, "https://api.github.com/user", accessToken, &info); err != nil {
		return nil, err
	}

	if info.Email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := getJSON(ctx, "https://api.github.com/user/emails", accessToken, &emails); err != nil {
			return nil, err
		}
		for i, e := range emails {
			if e.Primary || i == 0 {
				info.Email = e.Email
			}
			if e.Primary {
				break
			}
		}
		if info.Email == "" {
			return nil, fmt.Errorf("no email found for github user")
		}
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &identity{
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      info.Email,
		Name:       name,
		AvatarURL:  info.AvatarURL,
	}, nil
}

func getJSON(ctx context.Context, url, accessToken string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
