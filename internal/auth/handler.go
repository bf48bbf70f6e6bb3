package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/identity"
)

// Handler exposes registration, login and profile endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  identity.Identity `json:"user"`
	Token TokenResponse     `json:"token"`
}

// Register creates an identity and returns a bearer token for its session.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, tok, err := h.svc.Register(c.UserContext(), identity.Profile{
		Name:        req.Name,
		Email:       req.Email,
		Country:     req.Country,
		CountryCode: req.CountryCode,
		Phone:       req.Phone,
	}, req.Password)
	if err != nil {
		return err
	}
	score := identity.PasswordStrength(req.Password)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user":              user,
		"token":             tok,
		"password_strength": fiber.Map{"score": score, "label": identity.StrengthLabel(score)},
	})
}

// Login validates credentials and returns a bearer token for a new session.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, tok, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{User: user, Token: tok})
}

// Logout ends the caller's session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess := SessionFrom(c)
	if sess == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	h.svc.Logout(c.UserContext(), SessionIDFrom(c), sess)
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

// Me returns the caller's identity.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := SessionFrom(c).Current()
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return c.Status(http.StatusOK).JSON(user)
}

type profileRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Country     *string `json:"country"`
	CountryCode *string `json:"country_code"`
	Phone       *string `json:"phone"`
}

// UpdateMe applies the provided profile fields to the caller's identity.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	sess := SessionFrom(c)
	user, ok := sess.Current()
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.CountryCode != nil {
		user.CountryCode = *req.CountryCode
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	updated, err := h.svc.UpdateProfile(c.UserContext(), sess, user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(updated)
}
