package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/store"
	"go.uber.org/zap"
)

const (
	msgInvalidCredentials = "Invalid credentials. Please try again."
	msgTooManyAttempts    = "Too many attempts. Please wait a moment and try again."
)

// AuthHandler provides the register, login and logout pages.
type AuthHandler struct {
	users    *services.UserService
	sessions *Sessions
	view     *Renderer
	logger   *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, sessions *Sessions, view *Renderer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		view:     view,
		logger:   logger,
	}
}

// AuthRouter registers auth routes on the given router. limit guards the
// credential-accepting POSTs.
func AuthRouter(r chi.Router, handler *AuthHandler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/register", handler.RegisterForm)
	r.With(limit).Post("/register", handler.Register)
	r.Get("/login", handler.LoginForm)
	r.With(limit).Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
}

// TooManyRequests renders the rate limit page.
func (h *AuthHandler) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.view.Error(w, r, http.StatusTooManyRequests, msgTooManyAttempts)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, pageRegister, "Register", nil)
}

// Register creates a new account and sends the user to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/register", danger(string(errInvalidForm)))
		return
	}

	_, err := h.users.Register(r.Context(), services.Registration{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			redirectWithNotice(w, r, "/register", danger(verr.Message))
		case errors.Is(err, store.ErrDuplicateUsername):
			redirectWithNotice(w, r, "/register", danger("Username already exists."))
		case errors.Is(err, store.ErrDuplicateEmail):
			redirectWithNotice(w, r, "/register", danger("Email already registered."))
		default:
			h.logger.Error("failed to register user", zap.Error(err))
			redirectWithNotice(w, r, "/register", danger(msgSomethingWrong))
		}
		return
	}

	redirectWithNotice(w, r, "/login", success("Account created successfully! Please log in."))
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, pageLogin, "Log in", nil)
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/login", danger(string(errInvalidForm)))
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			redirectWithNotice(w, r, "/login", danger(msgInvalidCredentials))
			return
		}
		h.logger.Error("failed to authenticate", zap.Error(err))
		redirectWithNotice(w, r, "/login", danger(msgSomethingWrong))
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		h.logger.Error("failed to issue session", zap.Int("user_id", user.ID), zap.Error(err))
		redirectWithNotice(w, r, "/login", danger(msgSomethingWrong))
		return
	}
	redirectWithNotice(w, r, "/", success("Login successful!"))
}

// Logout clears the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	redirectWithNotice(w, r, "/login", info("You have been logged out."))
}
