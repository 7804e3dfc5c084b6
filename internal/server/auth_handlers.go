package server

import (
	"errors"
	"fmt"
	"time"

	"banana/internal/auth"
	"banana/internal/models"
	"banana/internal/observability"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// providerLabels are the user-facing provider names used in messages.
var providerLabels = map[string]string{
	models.ProviderKakao:  "카카오",
	models.ProviderGoogle: "구글",
	models.ProviderNaver:  "네이버",
}

// LoginRedirect handles GET /login/:provider — issues a CSRF state and
// forwards the browser to the provider consent page.
func (s *Server) LoginRedirect(c *fiber.Ctx) error {
	name := c.Params("provider")
	provider, ok := s.providers[name]
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("지원하지 않는 로그인 제공자입니다."))
	}

	state, err := s.states.Issue(c.UserContext(), name)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Redirect(provider.AuthURL(state), fiber.StatusFound)
}

// OAuthCallback handles GET /login/:provider/callback — verifies the CSRF
// state, exchanges the authorization code, resolves the local user, and
// delivers a session cookie via redirect to the front-end.
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	name := c.Params("provider")
	provider, ok := s.providers[name]
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("지원하지 않는 로그인 제공자입니다."))
	}

	ctx := c.UserContext()

	state := c.Query("state")
	verified, err := s.states.Verify(ctx, name, state)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if !verified {
		observability.OAuthLogins.WithLabelValues(name, "state_mismatch").Inc()
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("CSRF 방지 실패"))
	}

	code := c.Query("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("인증 코드가 없습니다."))
	}

	profile, err := provider.Exchange(ctx, code, state)
	if err != nil {
		observability.OAuthLogins.WithLabelValues(name, "failure").Inc()
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewUpstreamError(fmt.Sprintf("%s 로그인 실패", providerLabels[name]), err))
	}

	user, created, err := s.userRepo.FindOrCreateBySocial(ctx,
		profile.Provider, profile.SocialID, profile.Name, profile.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if created {
		observability.UsersCreated.WithLabelValues(name).Inc()
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.OAuthLogins.WithLabelValues(name, "success").Inc()

	c.Cookie(auth.SessionCookie(token))
	return c.Redirect(s.config.FrontPageURL, fiber.StatusFound)
}

// Logout handles GET /logout. Sessions are stateless, so logout is just
// clearing the cookie on the client.
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(auth.ExpiredSessionCookie())
	return c.JSON(fiber.Map{
		"message": "JWT 기반이므로 클라이언트에서 토큰을 삭제하세요.",
	})
}

// GetCurrentUser handles GET /auth/me. Users are never updated after
// creation, so the lookup is served cache-aside without invalidation.
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var user models.User
	err := s.cache.Aside(ctx, fmt.Sprintf("user:%d", userID), &user, 5*time.Minute, func() error {
		found, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user = *found
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("사용자를 찾을 수 없습니다."))
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"provider": user.Provider,
	})
}
