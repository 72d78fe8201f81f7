package handlers

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
)

const (
	requestTokenCookie = "twitter_oauth"
	requestTokenMaxAge = 15 * time.Minute
)

type PlatformHandler struct {
	s   service.AccountService
	cfg config.Config
	key []byte
}

func NewPlatformHandler(s service.AccountService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{s: s, cfg: cfg, key: utils.DeriveKey(cfg.SecretKey)}
}

// Connect starts the handshake and sends the browser to the consent page.
// The request token pair is kept sealed in a short-lived cookie.
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	authURL, token, err := h.s.StartAuthorization(c.Context())
	if err != nil {
		return h.failRedirect(c, "request_token")
	}

	sealed, err := utils.Encrypt(token.Token+" "+token.TokenSecret, h.key)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     requestTokenCookie,
		Value:    sealed,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(requestTokenMaxAge.Seconds()),
	})

	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	sealed := c.Cookies(requestTokenCookie)
	c.Cookie(&fiber.Cookie{
		Name:   requestTokenCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if c.Query("denied") != "" {
		return h.failRedirect(c, "denied")
	}

	oauthToken := c.Query("oauth_token")
	verifier := c.Query("oauth_verifier")
	if oauthToken == "" || verifier == "" || sealed == "" {
		return h.failRedirect(c, "missing_params")
	}

	opened, err := utils.Decrypt(sealed, h.key)
	if err != nil {
		slog.Info(err.Error())
		return h.failRedirect(c, "missing_params")
	}
	requestToken, requestSecret, ok := strings.Cut(opened, " ")
	if !ok || requestToken != oauthToken {
		return h.failRedirect(c, "token_mismatch")
	}

	profile, err := h.s.CompleteAuthorization(c.Context(), requestToken, requestSecret, verifier)
	if err != nil {
		return h.failRedirect(c, "server_error")
	}

	slog.Info("twitter account connected", "handle", profile.Handle)
	return c.Redirect(fmt.Sprintf("%s/?twitter_connected=true", h.cfg.FrontendURL), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) failRedirect(c *fiber.Ctx, reason string) error {
	params := url.Values{}
	params.Add("error", "twitter_auth_failed")
	params.Add("reason", reason)
	return c.Redirect(fmt.Sprintf("%s/?%s", h.cfg.FrontendURL, params.Encode()), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) GetAccount(c *fiber.Ctx) error {
	profile, err := h.s.Profile(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to fetch account")
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *PlatformHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.s.Disconnect(c.Context()); err != nil {
		return respondError(c, err, "Unable to disconnect account")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
