package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/folio/internal/service"
	"github.com/folio/internal/task"
	"github.com/gin-gonic/gin"
)

type registerPayload struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profilePayload struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type changePasswordPayload struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register 创建账号并返回令牌，欢迎邮件异步发送
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload) {
		return
	}
	if payload.Password != payload.Password2 {
		respondFields(c, map[string][]string{"password": {"Password fields didn't match."}})
		return
	}

	user, token, err := a.auth.Register(service.RegisterInput{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	if a.tasks != nil {
		if !a.tasks.Enqueue(task.WelcomeEmail(a.mailer, user.Email, user.Username)) {
			a.log.Warn().Str("username", user.Username).Msg("welcome email not queued")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserView(user), "token": token.Key})
}

// Login 校验用户名与密码并返回令牌
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload) {
		return
	}
	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Please provide both username and password"})
		return
	}

	user, token, err := a.auth.Login(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserView(user), "token": token.Key})
}

// Logout 删除当前用户的令牌
func (a *API) Logout(c *gin.Context) {
	if err := a.auth.Logout(actorFrom(c).UserID); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetProfile returns the authenticated user.
func (a *API) GetProfile(c *gin.Context) {
	if user := userFrom(c); user != nil {
		c.JSON(http.StatusOK, newUserView(user))
		return
	}

	user, err := a.auth.Profile(actorFrom(c).UserID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

// ReplaceProfile handles PUT; the username must be supplied.
func (a *API) ReplaceProfile(c *gin.Context) {
	a.updateProfile(c, true)
}

// PatchProfile handles PATCH.
func (a *API) PatchProfile(c *gin.Context) {
	a.updateProfile(c, false)
}

func (a *API) updateProfile(c *gin.Context, full bool) {
	var payload profilePayload
	if !bindJSON(c, &payload) {
		return
	}
	if full && payload.Username == nil {
		respondFields(c, map[string][]string{"username": {"This field is required."}})
		return
	}

	user, err := a.auth.UpdateProfile(actorFrom(c).UserID, service.ProfilePatch{
		Username:  payload.Username,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

// ChangePassword 校验旧密码后设置新密码
func (a *API) ChangePassword(c *gin.Context) {
	var payload changePasswordPayload
	if !bindJSON(c, &payload) {
		return
	}

	if err := a.auth.ChangePassword(actorFrom(c).UserID, payload.OldPassword, payload.NewPassword); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
