package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
	"github.com/threewords/journal/internal/store"
	"github.com/threewords/journal/internal/validation"
)

var (
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrMissingSubject = errors.New("google account id missing")
)

// GoogleUserInfo is the profile returned by Google's userinfo endpoint.
type GoogleUserInfo struct {
	Sub     string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type AuthService struct {
	userRepository repository.UserRepository
	store          *store.Store
	jwtSecret      string
	isProduction   bool
	jwtExpiry      time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	store *store.Store,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		store:          store,
		jwtSecret:      jwtSecret,
		isProduction:   isProduction,
		jwtExpiry:      jwtExpiry,
	}
}

func (s *AuthService) JWTExpiry() time.Duration {
	return s.jwtExpiry
}

// AuthenticateGoogle signs a Google account in, creating the user on first
// visit, and caches the profile next to the user's journal.
func (s *AuthService) AuthenticateGoogle(ctx context.Context, info GoogleUserInfo) (*model.User, error) {
	if info.Sub == "" {
		return nil, ErrMissingSubject
	}
	email := strings.TrimSpace(strings.ToLower(info.Email))
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	user := &model.User{
		GoogleSub: info.Sub,
		Email:     email,
		Name:      strings.TrimSpace(info.Name),
		AvatarURL: info.Picture,
	}
	err = s.userRepository.Upsert(user)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	err = s.store.SaveUser(ctx, user)
	if err != nil {
		slog.WarnContext(ctx, "failed to cache user profile", "error", err, "user_id", user.ID)
	}

	slog.InfoContext(ctx, "user authenticated via google", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// SignOut drops the cached profile. Entries stay so the next sign-in finds them.
func (s *AuthService) SignOut(ctx context.Context, userID string) {
	err := s.store.ClearUser(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "failed to clear cached profile", "error", err, "user_id", userID)
	}
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
