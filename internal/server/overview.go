package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tracker/internal/models"
)

// handleListActivity returns recent activity, newest first.
func (s *Server) handleListActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = v
	}

	entries, err := s.svc.ListActivity(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, entries)
}

// handleDashboard returns the summary counters and short lists.
func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.svc.Dashboard(c.Request.Context(), ownerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, d)
}

// handleGetProfile returns the caller's user record, creating it on first use.
func (s *Server) handleGetProfile(c *gin.Context) {
	u, err := s.svc.Profile(c.Request.Context(), ownerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, u)
}

// handleUpdateProfile changes name, email or theme preference.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req models.ProfilePatch
	if !s.bindJSON(c, &req) {
		return
	}
	u, err := s.svc.UpdateProfile(c.Request.Context(), ownerID(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, u)
}
