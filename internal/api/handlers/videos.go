package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/service"
	"github.com/go-chi/chi/v5"
)

type VideoHandler struct {
	videoService *service.VideoService
	cfg          *config.Config
	writeError   middleware.ErrorWriter
}

func NewVideoHandler(videoService *service.VideoService, cfg *config.Config, logger *log.Logger) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		cfg:          cfg,
		writeError:   ErrorWriter(logger),
	}
}

type UpdateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.videoService.List(r.Context(), service.ListVideosInput{
		Page:     service.Page{Page: queryInt(r, "page", 1), Limit: queryInt(r, "limit", 10)},
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Videos fetched successfully", toPage(page, toVideo))
}

func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	if !isMultipart(r) {
		h.writeError(w, r, domain.NewValidationError("Video file is required"))
		return
	}
	if err := parseMultipart(w, r, h.cfg.MaxUploadBytes()); err != nil {
		h.writeError(w, r, err)
		return
	}

	files := &uploads{}
	defer files.cleanup()

	videoPath, err := files.save(r, "videoFile")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	thumbnailPath, err := files.save(r, "thumbnail")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	input := service.PublishInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
	}
	if v := r.FormValue("duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
			h.writeError(w, r, domain.NewValidationError("Duration must be a number of seconds"))
			return
		}
		input.Duration = d
	}
	if v := r.FormValue("isPublished"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, domain.NewValidationError("isPublished must be true or false"))
			return
		}
		input.IsPublished = &published
	}

	video, err := h.videoService.Publish(r.Context(), caller.User.ID, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "Video published successfully", toVideo(video))
}

func (h *VideoHandler) MyVideos(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	page, err := h.videoService.ListByOwner(r.Context(), caller.User.ID, service.Page{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 10),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Videos fetched successfully", toPage(page, toVideo))
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, err := h.videoService.Get(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Video fetched successfully", toVideo(video))
}

// Update accepts JSON or a multipart form with an optional thumbnail.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	files := &uploads{}
	defer files.cleanup()

	var input service.UpdateVideoInput
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.cfg.MaxUploadBytes()); err != nil {
			h.writeError(w, r, err)
			return
		}
		thumbnailPath, err := files.save(r, "thumbnail")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		input = service.UpdateVideoInput{
			Title:         r.FormValue("title"),
			Description:   r.FormValue("description"),
			ThumbnailPath: thumbnailPath,
		}
	} else {
		var req UpdateVideoRequest
		if err := decodeJSON(r, &req, false); err != nil {
			h.writeError(w, r, err)
			return
		}
		input = service.UpdateVideoInput{Title: req.Title, Description: req.Description}
	}

	video, err := h.videoService.Update(r.Context(), chi.URLParam(r, "videoID"), caller.User.ID, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Video updated successfully", toVideo(video))
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	if err := h.videoService.Delete(r.Context(), chi.URLParam(r, "videoID"), caller.User.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Video deleted successfully", struct{}{})
}

func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	video, err := h.videoService.TogglePublish(r.Context(), chi.URLParam(r, "videoID"), caller.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Publish status toggled successfully", toVideo(video))
}

func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserID(r.Context())
	video, err := h.videoService.RecordView(r.Context(), chi.URLParam(r, "videoID"), viewerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "View recorded", toVideo(video))
}
