package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/response"
	"github.com/oksasatya/go-ddd-library/pkg/validation"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpwd"`
	Role     string `json:"role" binding:"required,libraryrole"`
}

type updateUserRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,strongpwd"`
	Role     string `json:"role" binding:"omitempty,libraryrole"`
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: entity.Role(req.Role),
	})
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, u, "user created", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), c.Param("id"), application.UpdateUserInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: entity.Role(req.Role),
	})
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, u, "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == c.GetString(middleware.CtxUserID) {
		response.Abort(c, http.StatusConflict, "admins cannot delete themselves", nil)
		return
	}
	if err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK[any](c, http.StatusOK, map[string]any{"deleted": id}, "user deleted", nil)
}
