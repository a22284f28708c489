package identity

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/apidoc-hub/apidoc-backend/internal/accounts"
)

// RequireUser validates the bearer token, resolves the account row and
// stores the actor in the gin context. Requests without a usable
// identity are rejected with 401 so the client can start a login flow.
func RequireUser(authClient *auth.Client, repo *accounts.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			return
		}

		decoded, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		acct, err := resolveAccount(c, repo, decoded)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "resolve account: " + err.Error()})
			return
		}

		if !acct.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "account disabled"})
			return
		}

		setActor(c, Actor{AccountID: acct.ID, Admin: acct.Admin})
		c.Next()
	}
}

// OptionalUser resolves an actor when a valid token is present but
// lets anonymous requests through untouched. Read paths use this so
// the visibility policy can tell "login required" apart from
// "forbidden".
func OptionalUser(authClient *auth.Client, repo *accounts.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		decoded, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			// Bad token on a public read path is treated as anonymous.
			c.Next()
			return
		}

		acct, err := resolveAccount(c, repo, decoded)
		if err != nil || !acct.Active {
			c.Next()
			return
		}

		setActor(c, Actor{AccountID: acct.ID, Admin: acct.Admin})
		c.Next()
	}
}

func resolveAccount(c *gin.Context, repo *accounts.Repo, decoded *auth.Token) (accounts.Account, error) {
	req := accounts.EnsureAccount{FirebaseUID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		req.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		req.Name = name
	}
	return repo.Ensure(c.Request.Context(), req)
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
