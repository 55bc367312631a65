package handlers

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService *service.UserService
	cfg         *config.Config
	writeError  middleware.ErrorWriter
}

func NewUserHandler(userService *service.UserService, cfg *config.Config, logger *log.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		cfg:         cfg,
		writeError:  ErrorWriter(logger),
	}
}

type UpdateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

type ChannelProfileResponse struct {
	*domain.User
	SubscribersCount  int64 `json:"subscribersCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdateAccount(r.Context(), caller.User.ID, service.UpdateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Account details updated successfully", user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.userService.UpdateAvatar, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.userService.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(context.Context, uuid.UUID, string) (*domain.User, error), message string) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	if !isMultipart(r) {
		h.writeError(w, r, domain.NewValidationError("Expected a multipart upload with a "+field+" file"))
		return
	}
	if err := parseMultipart(w, r, h.cfg.MaxUploadBytes()); err != nil {
		h.writeError(w, r, err)
		return
	}

	files := &uploads{}
	defer files.cleanup()

	path, err := files.save(r, field)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := update(r.Context(), caller.User.ID, path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, message, user)
}

func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserID(r.Context())

	profile, err := h.userService.GetChannelProfile(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "User channel fetched successfully", ChannelProfileResponse{
		User:              profile.User,
		SubscribersCount:  profile.SubscribersCount,
		SubscribedToCount: profile.SubscribedToCount,
		IsSubscribed:      profile.IsSubscribed,
	})
}

func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	videos, err := h.userService.GetWatchHistory(r.Context(), caller.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Watch history fetched successfully", toVideos(videos))
}
