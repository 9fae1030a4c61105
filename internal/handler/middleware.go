package handler

import (
	"net/http"
	"strings"

	"github.com/folio/internal/access"
	"github.com/folio/internal/db"
	"github.com/gin-gonic/gin"
)

const (
	actorContextKey = "folio.actor"
	userContextKey  = "folio.user"
)

// Authenticate resolves the Authorization header into an actor. Requests
// without credentials continue as anonymous; a bad token is rejected.
func (a *API) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}

		scheme, key, _ := strings.Cut(header, " ")
		if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
			c.Next()
			return
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			c.Header("WWW-Authenticate", "Token")
			respondError(c, http.StatusUnauthorized, "Invalid token header.")
			return
		}

		user, err := a.auth.Authenticate(key)
		if err != nil {
			a.fail(c, err)
			return
		}

		c.Set(actorContextKey, access.User(user.ID))
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).Authenticated() {
			c.Header("WWW-Authenticate", "Token")
			respondError(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) access.Actor {
	if value, ok := c.Get(actorContextKey); ok {
		if actor, ok := value.(access.Actor); ok {
			return actor
		}
	}
	return access.Anonymous()
}

func userFrom(c *gin.Context) *db.User {
	if value, ok := c.Get(userContextKey); ok {
		if user, ok := value.(*db.User); ok {
			return user
		}
	}
	return nil
}
