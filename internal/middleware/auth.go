package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/beerpong/internal/config"
	"github.com/AdamBeresnev/beerpong/internal/store"
	users "github.com/AdamBeresnev/beerpong/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

const userSessionKey = "userID"

func InitAuth(cfg *config.Config) {
	goth.UseProviders(
		discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
		google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email", "profile"),
	)
}

// LoadAuthenticatedUser puts the logged in organizer, if any, into the
// request context. It never rejects a request.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), userSessionKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), userSessionKey)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userStore.GetUser(r.Context(), userID)
			if err != nil {
				sessionManager.Remove(r.Context(), userSessionKey)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, users.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects to the login page unless LoadAuthenticatedUser found
// an organizer.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func LoginUser(ctx context.Context, sessionManager *scs.SessionManager, userID uuid.UUID) error {
	if err := sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	sessionManager.Put(ctx, userSessionKey, userID.String())
	return nil
}

// Teams log in per tournament, so one browser can hold a team session for
// several tournaments next to an organizer session.
func teamSessionKey(tournamentID uuid.UUID) string {
	return "team:" + tournamentID.String()
}

func LoginTeam(ctx context.Context, sessionManager *scs.SessionManager, tournamentID, teamID uuid.UUID) error {
	if err := sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	sessionManager.Put(ctx, teamSessionKey(tournamentID), teamID.String())
	return nil
}

func GetTeamFromSession(ctx context.Context, sessionManager *scs.SessionManager, tournamentID uuid.UUID) (uuid.UUID, bool) {
	teamID, err := uuid.Parse(sessionManager.GetString(ctx, teamSessionKey(tournamentID)))
	if err != nil {
		return uuid.Nil, false
	}
	return teamID, true
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
