package handler

import (
	"net/http"
	"strings"

	"github.com/templui/muzer/internal/ctxkeys"
	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/model"
	"github.com/templui/muzer/internal/service"
)

type streamHandler struct {
	streamService *service.StreamService
}

func NewStreamHandler(streamService *service.StreamService) *streamHandler {
	return &streamHandler{streamService: streamService}
}

type submitStreamRequest struct {
	CreatorID string `json:"creatorId"`
	URL       string `json:"url"`
}

// Submit handles POST /stream
func (h *streamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitStreamRequest
	err := middleware.ParseJSONBody(w, r, &req)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	req.CreatorID = strings.TrimSpace(req.CreatorID)
	if req.CreatorID == "" || req.URL == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creatorId and url are required")
		return
	}

	stream, err := h.streamService.Submit(r.Context(), req.CreatorID, req.URL)
	if err != nil {
		serviceError(w, r, err, "Error while adding stream")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"message": "Stream added successfully",
		"id":      stream.ID,
	})
}

// List handles GET /stream?creatorId=
func (h *streamHandler) List(w http.ResponseWriter, r *http.Request) {
	creatorID := r.URL.Query().Get("creatorId")
	if creatorID == "" {
		middleware.JSONResponse(w, http.StatusOK, map[string]any{"stream": []*model.QueuedStream{}})
		return
	}

	streams, err := h.streamService.ListByCreator(r.Context(), creatorID, ctxkeys.SessionUserID(r.Context()))
	if err != nil {
		serviceError(w, r, err, "Error while listing streams")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{"stream": streams})
}

// My handles GET /stream/my
func (h *streamHandler) My(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	streams, err := h.streamService.MyQueue(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err, "Error while listing streams")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{"streams": streams})
}

// Next handles GET /stream/next
func (h *streamHandler) Next(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	stream, err := h.streamService.Advance(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err, "Error while advancing queue")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{"stream": stream})
}

// Delete handles DELETE /stream/{id}
func (h *streamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.streamService.Delete(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		serviceError(w, r, err, "Could not delete stream.")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"message": "Stream and related votes removed successfully.",
	})
}
