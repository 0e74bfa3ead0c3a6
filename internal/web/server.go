package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/auth"
	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/internal/database"
	"github.com/bigredeye/raport/internal/models"
	"github.com/bigredeye/raport/internal/photos"
	"github.com/bigredeye/raport/internal/records"
	"github.com/bigredeye/raport/internal/scorer"
	assets "github.com/bigredeye/raport/web"
)

const requestIDKey = "request_id"

type server struct {
	config *config.Config
	logger *zap.Logger

	db      *database.DataBase
	photos  *photos.Store
	scorer  *scorer.Scorer
	records *records.Manager
	auth    *auth.Gate
}

func newServer(
	config *config.Config,
	logger *zap.Logger,
	db *database.DataBase,
	store *photos.Store,
	gate *auth.Gate,
) *server {
	return &server{
		config:  config,
		logger:  logger,
		db:      db,
		photos:  store,
		scorer:  scorer.NewScorer(db, logger),
		records: records.NewManager(db, store, logger),
		auth:    gate,
	}
}

func buildHTMLTemplates(files fs.FS, funcMap template.FuncMap) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	err := fs.WalkDir(files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		bytes, err := fs.ReadFile(files, path)
		if err != nil {
			return err
		}
		_, err = tmpl.New("/" + path).Parse(string(bytes))
		return errors.Wrapf(err, "Failed to parse template %s", path)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to collect html templates")
	}

	return tmpl, nil
}

func requestID(c *gin.Context) {
	id := c.GetHeader("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}
	c.Set(requestIDKey, id)
	c.Header("X-Request-ID", id)
	c.Next()
}

func (s *server) router() (*gin.Engine, error) {
	funcs := template.FuncMap{
		"score": func(student models.Student, key string) int {
			return student.Get(key)
		},
	}
	tmpl, err := buildHTMLTemplates(assets.StaticTemplates, funcs)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build html templates")
	}

	maxRequestSize, err := s.config.RequestMaxSize()
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = maxRequestSize

	r.Use(requestID)
	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	r.SetHTMLTemplate(tmpl)

	if err := setupAuth(s, r); err != nil {
		return nil, err
	}
	setupPublicService(s, r)
	setupLoginService(s, r)
	setupAdminService(s, r)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})

	r.StaticFS(s.config.Endpoints.Assets, http.FS(assets.StaticContent))

	return r, nil
}
