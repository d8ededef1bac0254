package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
	"go.uber.org/zap"
)

const msgLoginToProfile = "Please log in to view your profile."

// ProfileHandler shows and edits the signed-in user's profile.
type ProfileHandler struct {
	users    *services.UserService
	sessions *Sessions
	view     *Renderer
	logger   *zap.Logger
}

func NewProfileHandler(users *services.UserService, sessions *Sessions, view *Renderer, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{users: users, sessions: sessions, view: view, logger: logger}
}

// ProfileRouter registers profile routes on the given router.
func ProfileRouter(r chi.Router, handler *ProfileHandler) {
	r.Use(RequireLogin(warning(msgLoginToProfile)))
	r.Get("/", handler.Show)
	r.Post("/", handler.Update)
}

type profileData struct {
	User    types.User
	Editing bool
}

func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), viewerID(r.Context()))
	if err != nil {
		h.loadError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, pageProfile, "Profile", profileData{
		User:    user,
		Editing: r.URL.Query().Get("edit") == "True",
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/profile?edit=True", danger(string(errInvalidForm)))
		return
	}

	_, err := h.users.UpdateProfile(r.Context(), viewerID(r.Context()), services.ProfileUpdate{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Bio:       r.PostFormValue("bio"),
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			redirectWithNotice(w, r, "/profile?edit=True", danger(verr.Message))
		case errors.Is(err, store.ErrDuplicateEmail):
			redirectWithNotice(w, r, "/profile?edit=True", danger("That email is already in use."))
		default:
			h.loadError(w, r, err)
		}
		return
	}

	redirectWithNotice(w, r, "/profile", success("Profile updated successfully!"))
}

// loadError handles a profile lookup failure. A session pointing at a
// missing user is cleared.
func (h *ProfileHandler) loadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.sessions.Clear(w)
		redirectWithNotice(w, r, "/login", warning(msgLoginToProfile))
		return
	}
	h.logger.Error("failed to load profile", zap.Error(err))
	h.view.Error(w, r, http.StatusInternalServerError, msgSomethingWrong)
}
