package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/auth"
	lf "github.com/bigredeye/raport/internal/logfield"
)

const (
	sessionName     = "raport_session"
	sessionAdminKey = "admin"
	adminContextKey = "admin"
)

type loginService struct {
	webService
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func setupLoginService(server *server, r *gin.Engine) {
	s := loginService{newWebService(server, "login")}

	r.GET(server.config.Endpoints.Login, s.loginPage)
	r.POST(server.config.Endpoints.Login, s.login)
	r.GET(server.config.Endpoints.Logout, s.logout)
}

func (s loginService) loginPage(c *gin.Context) {
	if sessionAdmin(c) != "" {
		c.Redirect(http.StatusSeeOther, s.config.Endpoints.Admin)
		return
	}
	s.server.render(c, "/login.tmpl", gin.H{"Title": "Login Admin"})
}

func (s loginService) login(c *gin.Context) {
	log := s.requestLog(c)

	form := loginForm{}
	if err := c.ShouldBind(&form); err != nil {
		log.Info("Invalid login form", zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Login, flashError, "Username atau password salah!")
		return
	}

	admin, err := s.server.auth.Login(form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.server.redirectWithFlash(c, s.config.Endpoints.Login, flashError, "Username atau password salah!")
		return
	}
	if err != nil {
		log.Error("Failed to check credentials", zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Login, flashError, "Terjadi kesalahan, coba lagi nanti.")
		return
	}

	session := renewSession(c)
	session.Set(sessionAdminKey, admin.Username)
	log.Info("Admin logged in", lf.Username(admin.Username))
	s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashSuccess, "Login berhasil!")
}

func (s loginService) logout(c *gin.Context) {
	session := sessions.Default(c)
	if username := sessionAdmin(c); username != "" {
		s.requestLog(c).Info("Admin logged out", lf.Username(username))
	}
	session.Clear()
	s.server.redirectWithFlash(c, s.config.Endpoints.Login, flashSuccess, "Anda telah logout.")
}

func decodeKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, nil
	}
	return hex.DecodeString(hexKey)
}

func setupAuth(s *server, r *gin.Engine) error {
	authKey, err := decodeKey(s.config.Server.Cookies.AuthenticationKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode hex authenticationKey")
	}
	if authKey == nil {
		authKey = make([]byte, 32)
		if _, err := rand.Read(authKey); err != nil {
			return errors.Wrap(err, "Failed to generate authenticationKey")
		}
		s.logger.Warn("No cookie authentication key configured, using a random one")
	}
	encryptKey, err := decodeKey(s.config.Server.Cookies.EncryptionKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode hex encryptionKey")
	}

	store := memstore.NewStore(authKey, encryptKey)
	store.Options(sessions.Options{
		Path:     "/",
		Secure:   s.config.Server.Cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	return nil
}

// renewSession empties the session and drops its id, so the next save issues
// a fresh cookie instead of promoting an id the client brought along.
func renewSession(c *gin.Context) sessions.Session {
	session := sessions.Default(c)
	session.Clear()
	if inner, ok := session.(interface{ Session() *gsessions.Session }); ok {
		inner.Session().ID = ""
	}
	return session
}

func sessionAdmin(c *gin.Context) string {
	username, _ := sessions.Default(c).Get(sessionAdminKey).(string)
	return username
}

func (s *server) validateSession(c *gin.Context) {
	username := sessionAdmin(c)
	if username == "" {
		s.logger.Info("Unauthenticated request",
			lf.RequestID(c.GetString(requestIDKey)),
			zap.String("path", c.Request.URL.Path),
		)
		s.redirectWithFlash(c, s.config.Endpoints.Login, flashError, "Silakan login terlebih dahulu!")
		c.Abort()
		return
	}

	c.Set(adminContextKey, username)
	c.Next()
}
