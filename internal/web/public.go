package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/database"
	lf "github.com/bigredeye/raport/internal/logfield"
)

type publicService struct {
	webService
}

func setupPublicService(server *server, r *gin.Engine) {
	s := publicService{newWebService(server, "public")}

	r.GET(server.config.Endpoints.Home, s.index)
	r.GET(server.config.Endpoints.Result, s.resultRedirect)
	r.POST(server.config.Endpoints.Result, s.result)
	r.GET(server.config.Endpoints.Uploads+"/:filename", s.photo)
}

func (s publicService) index(c *gin.Context) {
	s.server.render(c, "/index.tmpl", gin.H{})
}

func (s publicService) resultRedirect(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, s.config.Endpoints.Home)
}

func (s publicService) result(c *gin.Context) {
	value := strings.TrimSpace(c.PostForm("absen"))
	if value == "" {
		s.server.redirectWithFlash(c, s.config.Endpoints.Home, flashError, "Masukkan nomor absen!")
		return
	}
	roll, err := strconv.Atoi(value)
	if err != nil {
		s.server.redirectWithFlash(c, s.config.Endpoints.Home, flashError, "Data siswa tidak ditemukan!")
		return
	}

	res, err := s.server.scorer.Lookup(roll)
	if errors.Is(err, database.ErrNotFound) {
		s.server.redirectWithFlash(c, s.config.Endpoints.Home, flashError, "Data siswa tidak ditemukan!")
		return
	}
	if err != nil {
		s.requestLog(c).Error("Failed to look up student", lf.Roll(roll), zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Home, flashError, "Terjadi kesalahan, coba lagi nanti.")
		return
	}

	s.server.render(c, "/result.tmpl", gin.H{
		"Title":   res.Student.Name,
		"Student": res.Student,
		"Total":   res.Total,
		"Rank":    res.Rank,
		"Count":   res.Count,
	})
}

func (s publicService) photo(c *gin.Context) {
	path, err := s.server.photos.Path(c.Param("filename"))
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}
	c.File(path)
}
