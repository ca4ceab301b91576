package users

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandlers provides HTTP handlers for user operations
type UserHandlers struct {
	userService UserService
	logger      *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService UserService, logger *zap.Logger) *UserHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandlers{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes under /users
func (h *UserHandlers) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("/create", h.CreateUser)
		users.PUT("/update/:id", h.UpdateUser)
		users.DELETE("/delete/:id", h.DeleteUser)
	}
}

func (h *UserHandlers) ListUsers(c *gin.Context) {
	views, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *UserHandlers) GetUser(c *gin.Context) {
	view, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	// an empty body falls through to field validation
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid create user body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var req UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid update user body", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	resp, err := h.userService.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	resp, err := h.userService.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandlers) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var userErr *UserError
	if errors.As(err, &userErr) {
		c.JSON(StatusForError(userErr), gin.H{"message": userErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// StatusForError maps a user error type onto an HTTP status.
// Missing users are 404 for get, update and delete alike.
func StatusForError(err *UserError) int {
	switch err.Type {
	case UserErrorTypeValidationFailed, UserErrorTypeAlreadyExists:
		return http.StatusBadRequest
	case UserErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
