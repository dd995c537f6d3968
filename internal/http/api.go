package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"expense-api/internal/auth"
	"expense-api/internal/domain"
	"expense-api/internal/service"
)

const identityKey = "identity"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	expenses service.ExpenseService
	exports  service.ExportService
	tokens   *auth.Manager
}

func NewHandler(users service.UserService, expenses service.ExpenseService, exports service.ExportService, tokens *auth.Manager) *Handler {
	return &Handler{
		users:    users,
		expenses: expenses,
		exports:  exports,
		tokens:   tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/users/:email", h.getUserByEmail)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusAccepted, gin.H{"ok": "ok"})
		})

		protected := api.Group("", h.requireAuth())
		{
			protected.PATCH("/users/:id", h.updateUser)
			protected.DELETE("/users/:id", h.deleteUser)

			protected.POST("/expenses", h.createExpense)
			protected.GET("/expenses", h.listExpenses)
			protected.GET("/expenses/:id", h.getExpense)
			protected.PATCH("/expenses/:id", h.updateExpense)
			protected.DELETE("/expenses/:id", h.deleteExpense)

			protected.POST("/exports", h.createExport)
			protected.GET("/exports", h.listExports)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth is the identity guard: it rejects the request before any
// handler runs unless the Authorization header carries a verifiable
// token. Verified claims are trusted for the rest of the request; the
// user is not re-fetched from storage.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authorization header provided"})
			return
		}

		parts := strings.Fields(header)
		if len(parts) < 2 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		identity, err := h.tokens.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	identity, _ := c.Get(identityKey)
	v, _ := identity.(domain.Identity)
	return v
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type createExpenseRequest struct {
	Title    string  `json:"title" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Category string  `json:"category" binding:"required"`
}

type updateExpenseRequest struct {
	Title    *string  `json:"title"`
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registered successfully",
		"token":   token,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "logged in successfully",
		"user":    userToResponse(user),
		"token":   token,
	})
}

func (h *Handler) getUserByEmail(c *gin.Context) {
	user, err := h.users.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, identityFrom(c), service.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), id, identityFrom(c)); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

func (h *Handler) createExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), identityFrom(c), req.Title, req.Amount, req.Category)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, expenseToResponse(*expense))
}

func (h *Handler) listExpenses(c *gin.Context) {
	expenses, err := h.expenses.List(c.Request.Context(), identityFrom(c), c.Query("filters"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = expenseToResponse(expenses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Get(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, expenseToResponse(*expense))
}

func (h *Handler) updateExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.expenses.Update(c.Request.Context(), id, identityFrom(c), service.ExpenseUpdate{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "expense updated successfully"})
}

func (h *Handler) deleteExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), id, identityFrom(c)); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "expense deleted successfully"})
}

func (h *Handler) createExport(c *gin.Context) {
	location, err := h.exports.ExportCSV(c.Request.Context(), identityFrom(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "export created successfully",
		"location": location,
	})
}

func (h *Handler) listExports(c *gin.Context) {
	objects, err := h.exports.ListExports(c.Request.Context(), identityFrom(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]ExportResponse, len(objects))
	for i := range objects {
		resp[i] = ExportResponse{
			Key:  objects[i].Key,
			Size: objects[i].Size,
		}
		if objects[i].LastModified != nil && !objects[i].LastModified.IsZero() {
			v := objects[i].LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrNoUpdateFields):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotSelf),
		errors.Is(err, service.ErrNotOwner):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type UserResponse struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Expenses []ExpenseResponse `json:"expenses,omitempty"`
}

type ExpenseResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"created_at"`
	UserID    int64   `json:"user_id"`
}

type ExportResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	for _, expense := range user.Expenses {
		resp.Expenses = append(resp.Expenses, expenseToResponse(expense))
	}
	return resp
}

func expenseToResponse(expense domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:        expense.ID,
		Title:     expense.Title,
		Amount:    expense.Amount,
		Category:  expense.Category,
		CreatedAt: expense.CreatedAt.Format(time.RFC3339),
		UserID:    expense.UserID,
	}
}
