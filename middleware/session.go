package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

const (
	// SessionCookie names the cookie holding the session id.
	SessionCookie = "msgboard_sid"
	// ContextSessionKey stores the *session.Session in the gin context.
	ContextSessionKey = "session"
)

// Sessions loads the visitor session before the handler and saves it afterwards.
func Sessions(store session.Store, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(c *gin.Context) {
		sess := loadSession(c, store)
		c.Set(ContextSessionKey, sess)
		c.Next()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		switch {
		case sess.Cleared():
			if err := store.Delete(ctx, sess.ID); err != nil {
				utils.Sugar.Warnw("delete session failed", "error", err)
			}
		case sess.Dirty():
			if err := store.Save(ctx, sess.ID, sess.Values(), ttl); err != nil {
				utils.Sugar.Warnw("save session failed", "error", err)
			}
		}
	}
}

func loadSession(c *gin.Context, store session.Store) *session.Session {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		vals, err := store.Load(c.Request.Context(), id)
		if err == nil {
			return session.FromValues(id, vals)
		}
		if !errors.Is(err, session.ErrNotFound) {
			utils.Sugar.Warnw("load session failed", "error", err)
		}
		// unknown id: keep it so the cookie stays stable
		if _, perr := uuid.Parse(id); perr == nil {
			return session.New(id)
		}
	}
	id := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session.New(id)
}

// GetSession returns the request session. It panics if Sessions is not installed.
func GetSession(c *gin.Context) *session.Session {
	return c.MustGet(ContextSessionKey).(*session.Session)
}
