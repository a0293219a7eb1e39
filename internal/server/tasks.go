package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/models"
	"tracker/internal/tracker"
)

type reorderRequest struct {
	Updates []tracker.ReorderItem `json:"updates"`
}

// handleListTasks returns every task of the caller.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.svc.ListTasks(c.Request.Context(), ownerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.svc.GetTask(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleCreateTask inserts a new task into a project.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.TaskInput
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.svc.CreateTask(c.Request.Context(), ownerID(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleUpdateTask updates task fields such as status or description.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.TaskPatch
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.svc.UpdateTask(c.Request.Context(), ownerID(c), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteTask(c.Request.Context(), ownerID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "task deleted"})
}

// handleReorderTasks persists a drag-and-drop batch.
func (s *Server) handleReorderTasks(c *gin.Context) {
	var req reorderRequest
	if !s.bindJSON(c, &req) {
		return
	}

	tasks, err := s.svc.Reorder(c.Request.Context(), ownerID(c), req.Updates)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "tasks reordered successfully", "data": tasks})
}
