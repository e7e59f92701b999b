package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/postline/internal/auth"
	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/geocoder89/postline/internal/gravatar"
	"github.com/geocoder89/postline/internal/http/middlewares"
	"github.com/geocoder89/postline/internal/notifications"
	"github.com/geocoder89/postline/internal/repo/postgres"
	"github.com/geocoder89/postline/internal/security"
	"github.com/geocoder89/postline/internal/validation"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, name, avatar string) (string, error)
}

type UsersHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        TokenIssuer
	notifier   notifications.Notifier
	cfg        config.Config
}

func NewUsersHandler(users UserReader, userWriter UserWriter, jwt TokenIssuer, notifier notifications.Notifier, cfg config.Config) *UsersHandler {
	return &UsersHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwt,
		notifier:   notifier,
		cfg:        cfg,
	}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	errs := validation.Register(req)

	if !errs.IsValid() {
		RespondFields(ctx, http.StatusBadRequest, errs)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// duplicate check first so we never pay for hashing a doomed request
	_, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondFields(ctx, http.StatusBadRequest, map[string]string{"email": "Email already exists"})
		return
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	avatar := gravatar.URL(req.Email)

	hash, err := security.HashPassword(req.Password, h.cfg.BcryptCost)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash, avatar)

	if err != nil {
		// a concurrent registration can still lose the race; the unique
		// index reports it here instead of at the lookup above
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondFields(ctx, http.StatusBadRequest, map[string]string{"email": "Email already exists"})
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	h.sendWelcome(u)

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	errs := validation.Login(req)

	if !errs.IsValid() {
		RespondFields(ctx, http.StatusBadRequest, errs)
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondFields(ctx, http.StatusNotFound, map[string]string{"email": "User not found"})
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondFields(ctx, http.StatusNotFound, map[string]string{"password": "Password incorrect"})
		return
	}

	token, err := h.jwt.Issue(foundUser.ID, foundUser.Name, foundUser.Avatar)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   auth.Bearer(token),
	})
}

func (h *UsersHandler) Current(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	})
}

// sendWelcome fires the welcome notification off the request path. Delivery
// failures are logged, never surfaced to the registering user.
func (h *UsersHandler) sendWelcome(u user.User) {
	if h.notifier == nil {
		return
	}

	go func() {
		err := h.notifier.SendWelcome(context.Background(), notifications.SendWelcomeInput{
			UserID: u.ID,
			Email:  u.Email,
			Name:   u.Name,
		})

		if err != nil {
			slog.Default().Warn("welcome notification failed", "user_id", u.ID, "err", err)
		}
	}()
}
