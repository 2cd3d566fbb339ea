package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ProfileCookieName = "profile_token"

var ErrInvalidProfileToken = errors.New("invalid profile token")

// ProfileService issues the signed cookie that identifies a browser profile.
// A profile is the unit that owns one local storage area.
type ProfileService struct {
	secret []byte
	expiry time.Duration
	secure bool
}

func NewProfileService(secret string, expiry time.Duration, secure bool) *ProfileService {
	return &ProfileService{
		secret: []byte(secret),
		expiry: expiry,
		secure: secure,
	}
}

func (s *ProfileService) NewProfileID() string {
	return uuid.New().String()
}

func (s *ProfileService) GenerateToken(profileID string) (string, error) {
	claims := jwt.MapClaims{
		"profile_id": profileID,
		"exp":        time.Now().Add(s.expiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken returns the profile id carried by a valid token.
func (s *ProfileService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProfileToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidProfileToken
	}

	profileID, ok := claims["profile_id"].(string)
	if !ok || uuid.Validate(profileID) != nil {
		return "", ErrInvalidProfileToken
	}

	return profileID, nil
}

func (s *ProfileService) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookieName,
		Value:    token,
		Expires:  time.Now().Add(s.expiry),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *ProfileService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
