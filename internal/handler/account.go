package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/neighborhelp/internal/service"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

// GET /account, or the leaderboard with action=topscorers.
func (h *Handler) account(c *gin.Context) {
	if c.Query("action") == "topscorers" {
		h.topScorers(c)
		return
	}
	id := userID(c)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "login required"})
		return
	}
	user, err := h.Accounts.Profile(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) topScorers(c *gin.Context) {
	lat, okLat := queryFloat(c, "lat")
	lng, okLng := queryFloat(c, "lng")
	miles, okMiles := queryFloat(c, "miles")
	if !okLat || !okLng || !okMiles {
		badRequest(c, "lat, lng and miles must be numbers")
		return
	}
	q := service.ScoreQuery{
		Zipcode: c.Query("zipcode"),
		Country: c.Query("country"),
		Lat:     lat,
		Lng:     lng,
	}
	if miles != nil {
		q.Miles = *miles
	}
	users, err := h.Accounts.TopScorers(c.Request.Context(), userID(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /account
func (h *Handler) updateAccount(c *gin.Context) {
	var p api.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := h.Accounts.UpdateProfile(c.Request.Context(), userID(c), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
