package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

// Identity headers set by the authenticating gateway in front of the service
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const actorKey = "actor"

// RequireActor reads the caller identity from trusted headers and rejects
// requests that carry none
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromHeaders(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid " + HeaderUserID + "/" + HeaderUserRole + " headers",
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFromHeaders(c *gin.Context) (lifecycle.Actor, bool) {
	id := c.GetHeader(HeaderUserID)
	role := entity.Role(c.GetHeader(HeaderUserRole))
	// The system role is internal and never accepted from a caller.
	if id == "" || !role.IsValid() || role == entity.RoleSystem {
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{UserID: id, Role: role}, true
}

func actorFrom(c *gin.Context) lifecycle.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(lifecycle.Actor); ok {
			return actor
		}
	}
	return lifecycle.Actor{}
}
