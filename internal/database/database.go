package database

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"moul.io/zapgorm2"

	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/internal/models"
)

var ErrNotFound = errors.New("record not found")

type DataBase struct {
	*gorm.DB
}

type DuplicateKey struct {
	nested error
}

func (e *DuplicateKey) Error() string {
	return e.nested.Error()
}

func (e *DuplicateKey) Unwrap() error {
	return e.nested
}

func IsDuplicateKey(err error) bool {
	duplicateKey := &DuplicateKey{}
	return errors.As(err, &duplicateKey)
}

// gorm does not translate driver errors for us
// https://github.com/go-gorm/gorm/issues/4037
func isUniqueViolation(err error) bool {
	var perr *pgconn.PgError
	if errors.As(err, &perr) {
		return perr.Code == "23505"
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return &DuplicateKey{err}
	}
	return err
}

func OpenDataBase(logger *zap.Logger, conf *config.Config) (*DataBase, error) {
	var dialector gorm.Dialector
	switch conf.DataBase.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(conf.DSN())
	default:
		dialector = postgres.Open(conf.DSN())
	}

	var db *gorm.DB
	connect := func() (err error) {
		db, err = open(logger, dialector)
		if err != nil {
			logger.Warn("Failed to open database, retrying", zap.Error(err))
		}
		return
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, err
	}

	if conf.DataBase.Driver == config.DriverSQLite {
		// sqlite serializes writers itself; a single connection turns
		// SQLITE_BUSY races into plain queueing.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return migrate(db)
}

// OpenSQLite opens (and migrates) a sqlite file, used by tests and tools.
func OpenSQLite(logger *zap.Logger, path string) (*DataBase, error) {
	db, err := open(logger, sqlite.Open(path))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return migrate(db)
}

func open(logger *zap.Logger, dialector gorm.Dialector) (*gorm.DB, error) {
	zapLogger := zapgorm2.New(logger.Named("gorm"))
	zapLogger.SetAsDefault()
	return gorm.Open(dialector, &gorm.Config{
		Logger: zapLogger,
	})
}

func migrate(db *gorm.DB) (*DataBase, error) {
	err := db.AutoMigrate(&models.Student{}, &models.Admin{})
	if err != nil {
		return nil, err
	}
	return &DataBase{db}, nil
}

// InTx runs fn inside a transaction; fn must only use the DataBase it gets.
func (db *DataBase) InTx(fn func(tx *DataBase) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&DataBase{tx})
	})
}

func (db *DataBase) AddStudent(student *models.Student) error {
	return wrapError(db.Create(student).Error)
}

func (db *DataBase) FindStudentByID(id uint) (*models.Student, error) {
	var student models.Student
	err := db.First(&student, id).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &student, nil
}

func (db *DataBase) FindStudentByRoll(roll int) (*models.Student, error) {
	var student models.Student
	err := db.First(&student, "roll = ?", roll).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &student, nil
}

// ListStudents returns all students ordered by roll number.
func (db *DataBase) ListStudents() (students []models.Student, err error) {
	students = make([]models.Student, 0)
	err = db.Order("roll").Find(&students).Error
	if err != nil {
		students = nil
	}
	return
}

// ListStudentsByID returns all students in insertion (id) order.
func (db *DataBase) ListStudentsByID() (students []models.Student, err error) {
	students = make([]models.Student, 0)
	err = db.Order("id").Find(&students).Error
	if err != nil {
		students = nil
	}
	return
}

func (db *DataBase) UpdateStudent(student *models.Student) error {
	res := db.Model(&models.Student{}).
		Where("id = ?", student.ID).
		Updates(map[string]interface{}{
			"roll":               student.Roll,
			"name":               student.Name,
			"photo":              student.Photo,
			"english":            student.English,
			"indonesian":         student.Indonesian,
			"sundanese":          student.Sundanese,
			"math":               student.Math,
			"physics":            student.Physics,
			"chemistry":          student.Chemistry,
			"coding":             student.Coding,
			"physical_education": student.PhysicalEducation,
			"civics":             student.Civics,
			"religion":           student.Religion,
		})
	if res.Error != nil {
		return wrapError(res.Error)
	}
	if res.RowsAffected < 1 {
		return ErrNotFound
	}
	return nil
}

func (db *DataBase) SetStudentPhoto(id uint, photo *string) error {
	res := db.Model(&models.Student{}).Where("id = ?", id).Update("photo", photo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return ErrNotFound
	}
	return nil
}

func (db *DataBase) RemoveStudent(id uint) error {
	res := db.Delete(&models.Student{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return ErrNotFound
	}
	return nil
}

func (db *DataBase) CountAdmins() (count int64, err error) {
	err = db.Model(&models.Admin{}).Count(&count).Error
	return
}

func (db *DataBase) AddAdmin(admin *models.Admin) error {
	return wrapError(db.Create(admin).Error)
}

func (db *DataBase) FindAdminByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	err := db.First(&admin, "username = ?", username).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &admin, nil
}

func (db *DataBase) SetAdminPassword(username, hash string) error {
	res := db.Model(&models.Admin{}).Where("username = ?", username).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return ErrNotFound
	}
	return nil
}
