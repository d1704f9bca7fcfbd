package ctxkeys

import (
	"context"

	"github.com/templui/muzer/internal/config"
	"github.com/templui/muzer/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey          contextKey = "user"
	SessionUserIDKey contextKey = "session_user_id"
	ConfigKey        contextKey = "config"
	CSRFTokenKey     contextKey = "csrf_token"
)

// User is the signed-in user, nil for anonymous requests or when the session
// names a user that no longer exists.
func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// SessionUserID is the user id carried by a valid session token.
func SessionUserID(ctx context.Context) string {
	id, _ := ctx.Value(SessionUserIDKey).(string)
	return id
}

func WithSessionUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionUserIDKey, id)
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
