package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProfileHandler shows the cached profile of the signed-in user.
type ProfileHandler struct {
	pages *Pages
}

func NewProfileHandler(pages *Pages) *ProfileHandler {
	return &ProfileHandler{pages: pages}
}

func (h *ProfileHandler) Show(c echo.Context) error {
	return h.pages.Render(c, http.StatusOK, "profile", View{Title: "My Profile"})
}
