package api

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type CreateUserRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     domain.UserRole `json:"role" binding:"required,oneof=manager agent"`
}

type ListUsersQuery struct {
	PageNumber int `form:"pageNumber" binding:"omitempty,min=1"`
	PageSize   int `form:"pageSize" binding:"omitempty,min=1"`
}

type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	PageNumber int            `json:"pageNumber"`
	PageSize   int            `json:"pageSize"`
	Total      int64          `json:"total"`
}

// CreateUser handles POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidUserInput):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Could not create user")
		}
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// ListUsers handles GET /users?pageNumber=&pageSize=.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	page, err := h.userService.List(c.Request.Context(), q.PageNumber, q.PageSize)
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "Could not list users")
		return
	}

	resp := UserListResponse{
		Users:      make([]UserResponse, len(page.Users)),
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		Total:      page.Total,
	}
	for i := range page.Users {
		resp.Users[i] = MapUserToResponse(&page.Users[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "Could not load user")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
