package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/self-order-app/models"
	"github.com/yeremiapane/self-order-app/utils"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Register -> admin membuat akun staf/kitchen baru.
func (uc *UserController) Register(c *gin.Context) {
	var body struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Role != models.RoleAdmin && body.Role != models.RoleStaff && body.Role != models.RoleKitchen {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid role %q", body.Role))
		return
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     body.Name,
		Email:    body.Email,
		Password: hash,
		Role:     body.Role,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusConflict, fmt.Errorf("email already registered"))
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Login -> tukar email+password dengan JWT.
func (uc *UserController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("invalid email or password"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if !utils.CheckPassword(user.Password, body.Password) {
		utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("invalid email or password"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login success", gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile -> data user yang sedang login.
func (uc *UserController) Profile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("user not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User profile", user)
}
