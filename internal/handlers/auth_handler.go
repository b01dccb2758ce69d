package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 24 * time.Hour

type AuthHandler struct {
	Users repository.UserRepository
}

func NewAuthHandler(db *mongo.Database) *AuthHandler {
	return &AuthHandler{Users: repository.NewUserRepository(db)}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	role := strings.ToLower(input.Role)
	if role == "" {
		role = models.RoleBuyer
	}
	if role != models.RoleBuyer && role != models.RoleSeller {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Role must be buyer or seller"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Users.FindByEmail(ctx, input.Email); err == nil {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Email is already registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to process password"))
		return
	}

	user, err := h.Users.Create(ctx, models.User{
		Username: input.Username,
		Email:    strings.ToLower(input.Email),
		Password: string(hashed),
		Role:     role,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("User registered", gin.H{"user": user}))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Invalid email or password"))
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Role, accessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Login successful", gin.H{
		"token": token,
		"user":  user,
	}))
}
