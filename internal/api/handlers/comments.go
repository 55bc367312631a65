package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/service"
	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService *service.CommentService
	writeError     middleware.ErrorWriter
}

func NewCommentHandler(commentService *service.CommentService, logger *log.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		writeError:     ErrorWriter(logger),
	}
}

type CommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.commentService.ListForVideo(r.Context(), chi.URLParam(r, "videoID"), service.Page{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 10),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Comments fetched successfully", toPage(page, toComment))
}

func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	comment, err := h.commentService.Add(r.Context(), chi.URLParam(r, "videoID"), caller.User.ID, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Comment added successfully", toComment(comment))
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), chi.URLParam(r, "commentID"), caller.User.ID, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Comment updated successfully", toComment(comment))
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}
	if err := h.commentService.Delete(r.Context(), chi.URLParam(r, "commentID"), caller.User.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Comment deleted successfully", struct{}{})
}
