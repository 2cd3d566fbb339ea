package ctxkeys

import (
	"context"

	"github.com/templui/tasktracker/internal/config"
	"github.com/templui/tasktracker/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ProfileIDKey contextKey = "profile_id"
	UserKey      contextKey = "user"
	ConfigKey    contextKey = "config"
	CSRFTokenKey contextKey = "csrf_token"
)

// ProfileID identifies the browser profile making the request.
func ProfileID(ctx context.Context) string {
	id, _ := ctx.Value(ProfileIDKey).(string)
	return id
}

func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ProfileIDKey, id)
}

// User is the signed-in user, or nil for guests.
func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
