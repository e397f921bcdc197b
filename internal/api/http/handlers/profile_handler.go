package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ralovishna/money-manager-api/internal/api/dto"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/persistence"
	"github.com/ralovishna/money-manager-api/internal/service"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

const loginWindow = time.Minute

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) persistence.RateDecision
}

// RateLimitRecorder counts rejected requests.
type RateLimitRecorder interface {
	RecordRateLimitHit(route string)
}

// PublicProfileReader looks up the caller or another profile by email.
type PublicProfileReader interface {
	PublicProfile(ctx context.Context, email *string) (domain.PublicProfile, error)
}

// ProfileHandler exposes registration, activation, login and profile lookup.
type ProfileHandler struct {
	profiles   *service.ProfileService
	reader     PublicProfileReader
	limiter    LoginLimiter
	recorder   RateLimitRecorder
	loginLimit int
}

// NewProfileHandler constructs handler. A nil limiter disables throttling.
func NewProfileHandler(profiles *service.ProfileService, reader PublicProfileReader, limiter LoginLimiter, recorder RateLimitRecorder, loginLimit int) *ProfileHandler {
	return &ProfileHandler{
		profiles:   profiles,
		reader:     reader,
		limiter:    limiter,
		recorder:   recorder,
		loginLimit: loginLimit,
	}
}

// Register handles POST /register.
func (h *ProfileHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	profile, err := h.profiles.Register(auth.RequestContext(c), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(profile)
}

// Activate handles GET /activate?activationToken=.
func (h *ProfileHandler) Activate(c *fiber.Ctx) error {
	ok, err := h.profiles.Activate(auth.RequestContext(c), c.Query("activationToken"))
	if err != nil {
		return err
	}
	if !ok {
		return c.Status(http.StatusNotFound).SendString("Activation token not found or already used")
	}
	return c.SendString("Profile activated successfully")
}

// Login handles POST /login.
func (h *ProfileHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := auth.RequestContext(c)
	if h.limiter != nil && h.loginLimit > 0 {
		decision := h.limiter.Allow(ctx, "login:"+service.NormalizeEmail(req.Email), h.loginLimit, loginWindow)
		if !decision.Allowed {
			if h.recorder != nil {
				h.recorder.RecordRateLimitHit("login")
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(decision.RetryAfter.Round(time.Second).Seconds())))
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		}
	}

	result, err := h.profiles.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Token:     result.Token.Value,
		ExpiresAt: result.Token.ExpiresAt,
		User:      result.Profile,
	})
}

// Profile handles GET /profile[?email=].
func (h *ProfileHandler) Profile(c *fiber.Ctx) error {
	var email *string
	if v := c.Query("email"); v != "" {
		email = &v
	}
	profile, err := h.reader.PublicProfile(auth.RequestContext(c), email)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}
