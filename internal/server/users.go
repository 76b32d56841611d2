package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskhub/internal/models"
	"taskhub/internal/task"
)

type userRequest struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userStatusRequest struct {
	Status string `json:"status"`
}

// handleListUsers returns every known principal.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// handleGetUser fetches one principal by id.
func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, fmt.Errorf("user not found"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// handleUpsertUser creates a principal or updates an existing one, keyed by
// email. An admin cannot demote themselves.
func (s *Server) handleUpsertUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("missing required field: email"))
		return
	}
	if !task.ValidIdentity(req.Email) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid email address"))
		return
	}
	if req.Role != "" && req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid role: must be admin or member"))
		return
	}
	if req.Status != "" {
		if _, ok := models.ValidUserStatuses[req.Status]; !ok {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid status: must be active, inactive, or suspended"))
			return
		}
	}

	actor := c.GetString(ctxActor)
	ctx := c.Request.Context()
	now := time.Now().UTC()

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		fields := map[string]any{}
		if req.Role != "" {
			if existing.Email == actor && req.Role != models.RoleAdmin {
				s.respondError(c, http.StatusBadRequest, fmt.Errorf("cannot change your own role"))
				return
			}
			fields["role"] = req.Role
		}
		if req.Status != "" {
			fields["status"] = req.Status
		}
		if req.FirstName != "" {
			fields["firstName"] = req.FirstName
		}
		if req.LastName != "" {
			fields["lastName"] = req.LastName
		}
		if len(fields) == 0 {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("no updates provided"))
			return
		}
		fields["updatedAt"] = now
		fields["updatedBy"] = actor

		if _, err := s.store.UpdateUserFields(ctx, existing.ID, fields); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"message": "user updated successfully", "userId": existing.ID})

	case errors.Is(err, models.ErrNotFound):
		user := models.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			Role:      req.Role,
			Status:    req.Status,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			CreatedAt: now,
			CreatedBy: actor,
			UpdatedAt: now,
		}
		if user.Role == "" {
			user.Role = models.RoleMember
		}
		if user.Status == "" {
			user.Status = models.UserStatusActive
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusCreated, gin.H{"message": "user created successfully", "userId": user.ID})

	default:
		s.respondError(c, http.StatusInternalServerError, err)
	}
}

// handleUpdateUserStatus changes a principal's account status.
func (s *Server) handleUpdateUserStatus(c *gin.Context) {
	var req userStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("missing required field: status"))
		return
	}
	if _, ok := models.ValidUserStatuses[req.Status]; !ok {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid status: must be active, inactive, or suspended"))
		return
	}

	s.applyUserStatus(c, c.Param("id"), req.Status)
}

// handleDeactivateUser marks a principal inactive instead of deleting the
// record, so historical task references stay resolvable.
func (s *Server) handleDeactivateUser(c *gin.Context) {
	s.applyUserStatus(c, c.Param("id"), "inactive")
}

func (s *Server) applyUserStatus(c *gin.Context, id, status string) {
	ctx := c.Request.Context()

	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, fmt.Errorf("user not found"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if user.Email == c.GetString(ctxActor) && status != models.UserStatusActive {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("cannot deactivate your own account"))
		return
	}

	fields := map[string]any{
		"status":    status,
		"updatedAt": time.Now().UTC(),
		"updatedBy": c.GetString(ctxActor),
	}
	if _, err := s.store.UpdateUserFields(ctx, user.ID, fields); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"message": "user status updated successfully",
		"userId":  user.ID,
		"status":  status,
	})
}
