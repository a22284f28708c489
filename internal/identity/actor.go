package identity

import (
	"github.com/gin-gonic/gin"
)

const ctxActorKey = "actor"

// Actor is the resolved acting principal for a request. Policy code
// always receives it as an explicit parameter; nothing below the
// transport layer reads identity out of ambient state.
type Actor struct {
	AccountID string `json:"account_id"`
	Admin     bool   `json:"is_admin"`
}

// CurrentActor returns the actor resolved by RequireUser/OptionalUser.
// ok is false for anonymous requests.
func CurrentActor(c *gin.Context) (Actor, bool) {
	v, exists := c.Get(ctxActorKey)
	if !exists {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	if !ok || actor.AccountID == "" {
		return Actor{}, false
	}
	return actor, true
}

func setActor(c *gin.Context, actor Actor) {
	c.Set(ctxActorKey, actor)
}

// WithActor pins a resolved actor without consulting a token verifier.
// For handler tests and local development only.
func WithActor(actor Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		setActor(c, actor)
		c.Next()
	}
}
