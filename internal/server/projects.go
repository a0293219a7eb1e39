package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/models"
)

// handleListProjects returns the caller's projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context(), ownerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, projects)
}

// handleGetProject returns a single project.
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.svc.GetProject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleCreateProject creates a new project entity.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req models.ProjectInput
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.svc.CreateProject(c.Request.Context(), ownerID(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleUpdateProject applies a partial update.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.ProjectPatch
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.svc.UpdateProject(c.Request.Context(), ownerID(c), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleDeleteProject removes a project. Its tasks are kept.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteProject(c.Request.Context(), ownerID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "project deleted"})
}

// handleDuplicateProject copies a project under a suffixed name.
func (s *Server) handleDuplicateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.svc.DuplicateProject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}
