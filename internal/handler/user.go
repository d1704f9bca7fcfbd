package handler

import (
	"net/http"

	"github.com/templui/muzer/internal/ctxkeys"
	"github.com/templui/muzer/internal/middleware"
)

type userHandler struct{}

func NewUserHandler() *userHandler {
	return &userHandler{}
}

// Whoami handles GET /user
func (h *userHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"id": user.ID})
}
