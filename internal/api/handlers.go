package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/liorwd/calbot/internal/channels/whatsapp"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	h := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	fasthttpadaptor.NewFastHTTPHandler(h)(c.Context())
	return nil
}

// handleVerifyWebhook answers Meta's subscription handshake. The challenge is
// echoed back only when the verify token matches.
func (s *Server) handleVerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != s.config.WhatsApp.VerifyToken {
		s.logger.Warn("Webhook verification rejected", zap.String("mode", mode))
		return c.SendStatus(403)
	}

	return c.SendString(challenge)
}

// handleWebhook receives message notifications. It always returns 200 so Meta
// does not retry deliveries we already looked at; failures are logged instead.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	messages, err := whatsapp.ParseWebhook(c.Body())
	if err != nil {
		s.logger.Warn("Failed to parse webhook payload", zap.Error(err))
		return c.SendStatus(200)
	}

	for _, msg := range messages {
		ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
		if err := s.bot.HandleMessage(ctx, msg.From, msg.Text); err != nil {
			s.logger.Error("Failed to handle message",
				zap.String("from", msg.From),
				zap.Error(err))
		}
		cancel()
	}

	return c.SendStatus(200)
}

func (s *Server) handleGoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")

	if errParam := c.Query("error"); errParam != "" {
		s.logger.Info("Google authorization denied", zap.String("reason", errParam))
		s.bot.DenyAuth(c.Context(), state)
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Status(200).SendString(callbackPage("Authorization cancelled",
			"No problem. You can reconnect from WhatsApp any time by sending \"connect\"."))
	}

	code := c.Query("code")
	if state == "" || code == "" {
		return c.Status(400).SendString("missing state or code")
	}

	if err := s.bot.CompleteAuth(c.Context(), state, code); err != nil {
		s.logger.Error("Failed to complete Google auth", zap.Error(err))
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Status(400).SendString(callbackPage("Something went wrong",
			"The authorization link may have expired. Send \"connect\" in WhatsApp to get a fresh one."))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(callbackPage("Calendar connected 🎉",
		"You can close this window and go back to WhatsApp."))
}

func callbackPage(title, body string) string {
	return `<!DOCTYPE html>
<html>
<head><title>CalBot</title></head>
<body style="font-family: sans-serif; max-width: 600px; margin: 50px auto; padding: 20px;">
<h1>` + title + `</h1>
<p>` + body + `</p>
</body>
</html>`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if s.config.Security.AdminPassword == "" || req.Password != s.config.Security.AdminPassword {
		return c.Status(401).JSON(fiber.Map{"error": "invalid password"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	users, err := s.store.ListUsers(limit, offset)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list users"})
	}

	return c.JSON(users)
}

func (s *Server) handleUserMessages(c *fiber.Ctx) error {
	id := c.Params("id")
	limit := c.QueryInt("limit", 50)

	if _, err := s.store.GetUser(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	messages, err := s.store.RecentMessages(id, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get messages"})
	}

	return c.JSON(messages)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.GetStats()
	if err != nil {
		s.logger.Error("Failed to compute stats", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	return c.JSON(stats)
}
