package api

import (
	"net/http"

	"github.com/igor04091968/tunnel-panel/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUserID   = "LOGIN_USER_ID"
	loginUsername = "LOGIN_USERNAME"
)

// LoginUser is the authenticated principal carried by the session cookie.
type LoginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func SetLoginUser(c *gin.Context, user *model.User, maxAge int) error {
	options := sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		options.MaxAge = maxAge * 60
	}

	s := sessions.Default(c)
	s.Set(loginUserID, user.ID)
	s.Set(loginUsername, user.Username)
	s.Options(options)

	return s.Save()
}

func GetLoginUser(c *gin.Context) *LoginUser {
	s := sessions.Default(c)
	id, ok := s.Get(loginUserID).(string)
	if !ok || id == "" {
		return nil
	}
	username, _ := s.Get(loginUsername).(string)
	return &LoginUser{ID: id, Username: username}
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func ClearSession(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.Save()
}

func checkLogin(c *gin.Context) {
	if !IsLogin(c) {
		jsonMsg(c, "", errUnauthorized)
		c.Abort()
		return
	}
	c.Next()
}

// ownerID is the identity threaded into every tunnel operation. Routes using
// it sit behind checkLogin.
func ownerID(c *gin.Context) string {
	return GetLoginUser(c).ID
}
