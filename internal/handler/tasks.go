package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/neighborhelp/internal/service"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

// GET /tasks?lat=&lng=&miles=&category= or ?zipcode=&country=&category=
func (h *Handler) feed(c *gin.Context) {
	lat, okLat := queryFloat(c, "lat")
	lng, okLng := queryFloat(c, "lng")
	miles, okMiles := queryFloat(c, "miles")
	if !okLat || !okLng || !okMiles {
		badRequest(c, "lat, lng and miles must be numbers")
		return
	}
	q := service.FeedQuery{
		Category: c.Query("category"),
		Lat:      lat,
		Lng:      lng,
		Zipcode:  c.Query("zipcode"),
		Country:  c.Query("country"),
	}
	if miles != nil {
		q.Miles = *miles
	}

	page, err := h.Tasks.Feed(c.Request.Context(), userID(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /tasks/info?key=K
func (h *Handler) taskInfo(c *gin.Context) {
	task, err := h.Tasks.Get(c.Request.Context(), userID(c), c.Query("key"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks
func (h *Handler) createTask(c *gin.Context) {
	var form api.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	task, err := h.Tasks.Create(c.Request.Context(), userID(c), form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// DELETE /tasks?key=K
func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), userID(c), c.Query("key")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /tasks/info?key=K&status=S[&version=V]
func (h *Handler) transition(c *gin.Context) {
	to, err := lifecycle.ParseStatus(c.Query("status"))
	if err != nil {
		badRequest(c, "unknown status")
		return
	}
	var version int64
	if raw := c.Query("version"); raw != "" {
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || version < 0 {
			badRequest(c, "invalid version")
			return
		}
	}

	task, err := h.Tasks.Transition(c.Request.Context(), userID(c), c.Query("key"), to, version)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks/edit?task-id=K&action=helpout claims, otherwise the body edits.
func (h *Handler) editTask(c *gin.Context) {
	key := c.Query("task-id")
	if strings.EqualFold(c.Query("action"), "helpout") {
		task, err := h.Tasks.Claim(c.Request.Context(), userID(c), key)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
		return
	}

	var form api.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	task, err := h.Tasks.Edit(c.Request.Context(), userID(c), key, form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /mytasks?keyword={Owner|Helper}&complete={True|False}[&cursor=C]
func (h *Handler) myTasks(c *gin.Context) {
	complete := false
	if raw := c.Query("complete"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "complete must be True or False")
			return
		}
		complete = v
	}
	page, err := h.Tasks.MyTasks(c.Request.Context(), userID(c), c.Query("keyword"), complete, c.Query("cursor"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /admin/stats
func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Tasks.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /admin/tasks
func (h *Handler) adminTasks(c *gin.Context) {
	tasks, err := h.Tasks.AdminTasks(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// POST /admin/tasks
func (h *Handler) recordAdminTask(c *gin.Context) {
	var form api.AdminTaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	task, err := h.Tasks.RecordAdminTask(c.Request.Context(), userID(c), form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}
