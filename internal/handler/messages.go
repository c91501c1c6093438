package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

// GET /messages?task-id=K[&cursor=C]
func (h *Handler) messages(c *gin.Context) {
	page, err := h.Messages.Page(c.Request.Context(), userID(c), c.Query("task-id"), c.Query("cursor"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /messages?task-id=K
func (h *Handler) postMessage(c *gin.Context) {
	var req api.PostMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.Messages.Post(c.Request.Context(), userID(c), c.Query("task-id"), req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// DELETE /messages?task-id=K
func (h *Handler) purgeMessages(c *gin.Context) {
	if err := h.Messages.Purge(c.Request.Context(), userID(c), c.Query("task-id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /notifications
func (h *Handler) notifications(c *gin.Context) {
	notes, err := h.Notifications.List(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}
