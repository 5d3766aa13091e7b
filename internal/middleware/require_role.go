package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streamnest/community-api/internal/utils"
)

// RequireRole guards a route behind the role extracted from the JWT. It
// must run after JWTProtected, which normalizes the claim into request
// locals; a request with no role or an unlisted role is rejected.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient role")
		}

		return c.Next()
	}
}
