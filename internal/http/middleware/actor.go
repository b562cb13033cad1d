package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	actorKey    = "actor"
	usernameKey = "username"
)

// Actor reads the caller identity headers. X-User identifies the end
// user browsing content; X-Actor identifies the operator performing
// admin writes (falling back to X-User, then "system").
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetHeader("X-User"))
		actor := strings.TrimSpace(c.GetHeader("X-Actor"))
		if actor == "" {
			actor = username
		}
		if username == "" {
			username = "user"
		}
		if actor == "" {
			actor = "system"
		}
		c.Set(usernameKey, username)
		c.Set(actorKey, actor)
		c.Next()
	}
}

func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func ActorName(c *gin.Context) string {
	return c.GetString(actorKey)
}
