package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/internal/pkg/database"
	"github.com/velomica/accounthub/internal/pkg/session"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		// Anonymous user - no session data
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)

	accessLevel := 0
	if lvl, ok := sess.Get(usercontext.KeyAccessLevel).(int); ok {
		accessLevel = lvl
	}

	// Tier name with session-first strategy
	tierName := session.GetSessionValue(c, "tier_name")
	if tierName == "" {
		if db := database.GetDB(); db != nil {
			var profile models.BillingProfile
			if err := db.Where("user_id = ?", userID.(uint)).First(&profile).Error; err == nil && profile.TierName != "" {
				tierName = profile.TierName
				// cache in session for subsequent requests
				_ = session.SetSessionValue(c, "tier_name", tierName)
			}
		}
	}

	userCtx := usercontext.UserContext{
		UserID:      userID.(uint),
		Username:    username,
		IsLoggedIn:  true,
		AccessLevel: accessLevel,
		TierName:    tierName,
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyAccessLevel, accessLevel)

	return c.Next()
}
