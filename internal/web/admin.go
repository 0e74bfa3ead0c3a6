package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/auth"
	"github.com/bigredeye/raport/internal/database"
	lf "github.com/bigredeye/raport/internal/logfield"
	"github.com/bigredeye/raport/internal/photos"
	"github.com/bigredeye/raport/internal/records"
	"github.com/bigredeye/raport/internal/scorer"
)

type adminService struct {
	webService
}

type studentForm struct {
	Roll      string `form:"absen" binding:"required,numeric"`
	Name      string `form:"nama" binding:"required"`
	DropPhoto bool   `form:"hapus_foto"`
}

type passwordForm struct {
	Current string `form:"current_password" binding:"required"`
	New     string `form:"new_password" binding:"required"`
	Confirm string `form:"confirm_password" binding:"required"`
}

func setupAdminService(server *server, r *gin.Engine) {
	s := adminService{newWebService(server, "admin")}

	g := r.Group("", server.validateSession)
	g.GET(server.config.Endpoints.Admin, s.list)
	g.GET(server.config.Endpoints.Create, s.createPage)
	g.POST(server.config.Endpoints.Create, s.limitBody, s.create)
	g.GET(server.config.Endpoints.Edit+"/:id", s.editPage)
	g.POST(server.config.Endpoints.Edit+"/:id", s.limitBody, s.edit)
	g.GET(server.config.Endpoints.Delete+"/:id", s.remove)
	g.GET(server.config.Endpoints.ChangePassword, s.changePasswordPage)
	g.POST(server.config.Endpoints.ChangePassword, s.changePassword)
}

func (s adminService) limitBody(c *gin.Context) {
	limit, err := s.config.RequestMaxSize()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	c.Next()
}

func (s adminService) list(c *gin.Context) {
	students, err := s.server.records.List()
	if err != nil {
		s.requestLog(c).Error("Failed to list students", zap.Error(err))
		c.String(http.StatusInternalServerError, "Terjadi kesalahan")
		return
	}
	standings, err := s.server.scorer.Standings()
	if err != nil {
		s.requestLog(c).Error("Failed to rank students", zap.Error(err))
		c.String(http.StatusInternalServerError, "Terjadi kesalahan")
		return
	}

	ranks := scorer.RankByID(standings)
	rows := make([]scorer.Standing, 0, len(students))
	for _, student := range students {
		row, ok := ranks[student.ID]
		if !ok {
			// created between the two queries
			row = scorer.Standing{Student: student, Total: student.Total()}
		}
		row.Student = student
		rows = append(rows, row)
	}

	s.server.render(c, "/admin.tmpl", gin.H{
		"Title": "Data Siswa",
		"Rows":  rows,
	})
}

func (s adminService) renderForm(c *gin.Context, title, action string, data gin.H) {
	maxSize, _ := s.config.PhotoMaxSize()
	data["Title"] = title
	data["Action"] = action
	data["PhotoMaxSize"] = units.BytesSize(float64(maxSize))
	s.server.render(c, "/student_form.tmpl", data)
}

// parseInput reads the student form. A missing photo is not an error; the
// caller owns closing the returned file.
func (s adminService) parseInput(c *gin.Context) (*records.Input, func(), error) {
	form := studentForm{}
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, err
	}
	roll, err := strconv.Atoi(form.Roll)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid roll number")
	}

	input := &records.Input{
		Roll:      roll,
		Name:      strings.TrimSpace(form.Name),
		Scores:    records.ParseScores(c.PostForm),
		DropPhoto: form.DropPhoto,
	}
	cleanup := func() {}

	header, err := c.FormFile("foto")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return input, cleanup, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "Failed to read photo")
	}
	if header.Filename == "" {
		return input, cleanup, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "Failed to open photo")
	}
	input.Photo = &records.PhotoUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
	return input, func() { _ = file.Close() }, nil
}

func (s adminService) flashRejectedPhoto(c *gin.Context, rejected error) {
	if rejected == nil {
		return
	}
	message := "Foto tidak disimpan: format file tidak didukung!"
	if errors.Is(rejected, photos.ErrTooLarge) {
		message = fmt.Sprintf("Foto tidak disimpan: ukuran maksimal %s!", s.config.Uploads.MaxSize)
	}
	addFlash(c, flashError, message)
}

func (s adminService) createPage(c *gin.Context) {
	s.renderForm(c, "Tambah Siswa", s.config.Endpoints.Create, gin.H{})
}

func (s adminService) create(c *gin.Context) {
	log := s.requestLog(c)

	input, cleanup, err := s.parseInput(c)
	if err != nil {
		log.Info("Invalid student form", zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Create, flashError, "Terjadi kesalahan: nomor absen dan nama wajib diisi dengan benar!")
		return
	}
	defer cleanup()

	res, err := s.server.records.Create(*input)
	if errors.Is(err, records.ErrDuplicateRollNumber) {
		s.server.redirectWithFlash(c, s.config.Endpoints.Create, flashError, "Nomor absen sudah terdaftar!")
		return
	}
	if err != nil {
		log.Error("Failed to create student", lf.Roll(input.Roll), zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Create, flashError, "Terjadi kesalahan, data siswa tidak disimpan.")
		return
	}

	s.flashRejectedPhoto(c, res.PhotoRejected)
	s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashSuccess, "Data siswa berhasil ditambahkan!")
}

// studentID parses the :id path parameter; malformed ids answer 404.
func (s adminService) studentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusNotFound, "not found")
		return 0, false
	}
	return uint(id), true
}

func (s adminService) editURL(id uint) string {
	return fmt.Sprintf("%s/%d", s.config.Endpoints.Edit, id)
}

func (s adminService) editPage(c *gin.Context) {
	id, ok := s.studentID(c)
	if !ok {
		return
	}

	student, err := s.server.records.Find(id)
	if errors.Is(err, database.ErrNotFound) {
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashError, "Data siswa tidak ditemukan!")
		return
	}
	if err != nil {
		s.requestLog(c).Error("Failed to find student", lf.StudentID(id), zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashError, "Terjadi kesalahan, coba lagi nanti.")
		return
	}

	s.renderForm(c, "Edit Siswa", s.editURL(id), gin.H{"Student": student})
}

func (s adminService) edit(c *gin.Context) {
	id, ok := s.studentID(c)
	if !ok {
		return
	}
	log := s.requestLog(c).With(lf.StudentID(id))

	input, cleanup, err := s.parseInput(c)
	if err != nil {
		log.Info("Invalid student form", zap.Error(err))
		s.server.redirectWithFlash(c, s.editURL(id), flashError, "Terjadi kesalahan: nomor absen dan nama wajib diisi dengan benar!")
		return
	}
	defer cleanup()

	res, err := s.server.records.Update(id, *input)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashError, "Data siswa tidak ditemukan!")
		return
	case errors.Is(err, records.ErrDuplicateRollNumber):
		s.server.redirectWithFlash(c, s.editURL(id), flashError, "Nomor absen sudah terdaftar!")
		return
	case err != nil:
		log.Error("Failed to update student", zap.Error(err))
		s.server.redirectWithFlash(c, s.editURL(id), flashError, "Terjadi kesalahan, data siswa tidak disimpan.")
		return
	}

	s.flashRejectedPhoto(c, res.PhotoRejected)
	s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashSuccess, "Data siswa berhasil diupdate!")
}

func (s adminService) remove(c *gin.Context) {
	id, ok := s.studentID(c)
	if !ok {
		return
	}

	err := s.server.records.Delete(id)
	if errors.Is(err, database.ErrNotFound) {
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashError, "Data siswa tidak ditemukan!")
		return
	}
	if err != nil {
		s.requestLog(c).Error("Failed to delete student", lf.StudentID(id), zap.Error(err))
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashError, "Terjadi kesalahan, data siswa tidak dihapus.")
		return
	}

	s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashSuccess, "Data siswa berhasil dihapus!")
}

func (s adminService) changePasswordPage(c *gin.Context) {
	s.server.render(c, "/change_password.tmpl", gin.H{"Title": "Ganti Password"})
}

func (s adminService) changePassword(c *gin.Context) {
	username := c.GetString(adminContextKey)
	log := s.requestLog(c).With(lf.Username(username))
	back := s.config.Endpoints.ChangePassword

	form := passwordForm{}
	if err := c.ShouldBind(&form); err != nil {
		log.Info("Invalid password form", zap.Error(err))
		s.server.redirectWithFlash(c, back, flashError, "Semua kolom password wajib diisi!")
		return
	}

	err := s.server.auth.ChangePassword(username, form.Current, form.New, form.Confirm)
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		s.server.redirectWithFlash(c, back, flashError, "Password baru tidak cocok!")
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.server.redirectWithFlash(c, back, flashError, "Password saat ini salah!")
	case err != nil:
		log.Error("Failed to change password", zap.Error(err))
		s.server.redirectWithFlash(c, back, flashError, "Terjadi kesalahan, password tidak diubah.")
	default:
		s.server.redirectWithFlash(c, s.config.Endpoints.Admin, flashSuccess, "Password berhasil diubah!")
	}
}
