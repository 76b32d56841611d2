package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/task"
)

// handleListTasks returns every task visible to the caller: all of them for
// admins, assigned ones for members.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.core.ListTasks(c.Request.Context(), c.GetString(ctxActor), c.GetString(ctxRole))
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"tasks":    tasks,
		"count":    len(tasks),
		"userRole": c.GetString(ctxRole),
	})
}

// handleGetTask fetches a single task, subject to member visibility.
func (s *Server) handleGetTask(c *gin.Context) {
	t, err := s.core.GetTask(c.Request.Context(), c.Param("id"), c.GetString(ctxActor), c.GetString(ctxRole))
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": t})
}

// handleCreateTask creates a task on behalf of an admin.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req task.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	t, err := s.core.CreateTask(c.Request.Context(), req, c.GetString(ctxActor), c.GetString(ctxRole))
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"message": "task created successfully", "task": t})
}

// handleUpdateTask applies a partial update through the mutation engine. The
// task identifier may come from the path or the body; the path wins when
// both are present.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req task.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if id := c.Param("id"); id != "" {
		req.TaskID = id
	}

	t, diff, err := s.core.UpdateTask(c.Request.Context(), req, c.GetString(ctxActor), c.GetString(ctxRole))
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"message": "task updated successfully",
		"task":    t,
		"diff":    diff,
	})
}

// handleDeleteTask removes a task (admin only).
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.core.DeleteTask(c.Request.Context(), c.Param("id"), c.GetString(ctxActor), c.GetString(ctxRole)); err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "task deleted successfully", "taskId": c.Param("id")})
}
