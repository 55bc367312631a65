package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	cfg         *config.Config
	logger      *log.Logger
	writeError  middleware.ErrorWriter
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, cfg *config.Config, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cfg:         cfg,
		logger:      logger,
		writeError:  ErrorWriter(logger),
	}
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register accepts JSON or a multipart form with optional avatar and
// coverImage files.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	files := &uploads{}
	defer files.cleanup()

	var avatarPath, coverPath string
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.cfg.MaxUploadBytes()); err != nil {
			h.writeError(w, r, err)
			return
		}
		req = RegisterRequest{
			FullName: r.FormValue("fullName"),
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}
		var err error
		if avatarPath, err = files.save(r, "avatar"); err != nil {
			h.writeError(w, r, err)
			return
		}
		if coverPath, err = files.save(r, "coverImage"); err != nil {
			h.writeError(w, r, err)
			return
		}
	} else if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	input := service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}
	if err := h.authService.PrecheckRegistration(r.Context(), input); err != nil {
		h.writeError(w, r, err)
		return
	}

	var err error
	if input.Avatar, err = h.userService.UploadMedia(r.Context(), avatarPath); err != nil {
		h.writeError(w, r, err)
		return
	}
	if input.CoverImage, err = h.userService.UploadMedia(r.Context(), coverPath); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setAuthCookies(w, h.cfg, result.TokenPair)
	respond(w, http.StatusOK, "User logged in successfully", AuthResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Refresh takes the refresh token from its cookie or the JSON body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req RefreshRequest
		if err := decodeJSON(r, &req, true); err != nil {
			h.writeError(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setAuthCookies(w, h.cfg, result.TokenPair)
	respond(w, http.StatusOK, "Access token refreshed", result.TokenPair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), caller); err != nil {
		h.writeError(w, r, err)
		return
	}

	clearAuthCookies(w, h.cfg)
	respond(w, http.StatusOK, "User logged out", struct{}{})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	if err := h.authService.LogoutAll(r.Context(), caller.User.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	clearAuthCookies(w, h.cfg)
	respond(w, http.StatusOK, "Logged out of all sessions", struct{}{})
}

func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	sessions, err := h.authService.ListSessions(r.Context(), caller.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, SessionResponse{
			ID:            s.ID.String(),
			UserAgent:     s.UserAgent,
			Current:       s.ID == caller.SessionID,
			CreatedAt:     s.CreatedAt,
			LastRotatedAt: s.LastRotatedAt,
			ExpiresAt:     s.ExpiresAt,
		})
	}
	respond(w, http.StatusOK, "Active sessions fetched", resp)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	err := h.authService.ChangePassword(r.Context(), caller.User.ID, service.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Password changed successfully", struct{}{})
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	respond(w, http.StatusOK, "Current user fetched successfully", caller.User)
}
