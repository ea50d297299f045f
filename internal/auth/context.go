package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated user's ID or 0.
func GetUserID(c *gin.Context) int64 {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// GetHogwartsID returns the authenticated user's Hogwarts ID or "".
func GetHogwartsID(c *gin.Context) string {
	return c.GetString(hogwartsIDKey)
}

// GetRole returns the role carried by the token. It can be stale; handlers
// that grant privileges re-read the user.
func GetRole(c *gin.Context) string {
	return c.GetString(roleKey)
}
