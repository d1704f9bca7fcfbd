package handler

import (
	"net/http"
	"strings"

	"github.com/templui/muzer/internal/ctxkeys"
	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/service"
)

type voteHandler struct {
	voteService *service.VoteService
}

func NewVoteHandler(voteService *service.VoteService) *voteHandler {
	return &voteHandler{voteService: voteService}
}

type voteRequest struct {
	StreamID string `json:"streamId"`
}

func parseVote(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req voteRequest
	err := middleware.ParseJSONBody(w, r, &req)
	if err != nil || strings.TrimSpace(req.StreamID) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid payload")
		return "", false
	}
	return strings.TrimSpace(req.StreamID), true
}

// Upvote handles POST /stream/upvote
func (h *voteHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	streamID, ok := parseVote(w, r)
	if !ok {
		return
	}

	err := h.voteService.Upvote(r.Context(), ctxkeys.User(r.Context()).ID, streamID)
	if err != nil {
		serviceError(w, r, err, "Failed to upvote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Upvoted successfully"})
}

// Downvote handles POST /stream/downvote
func (h *voteHandler) Downvote(w http.ResponseWriter, r *http.Request) {
	streamID, ok := parseVote(w, r)
	if !ok {
		return
	}

	err := h.voteService.Downvote(r.Context(), ctxkeys.User(r.Context()).ID, streamID)
	if err != nil {
		serviceError(w, r, err, "Failed to downvote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Downvoted successfully"})
}
