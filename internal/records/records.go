package records

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/database"
	lf "github.com/bigredeye/raport/internal/logfield"
	"github.com/bigredeye/raport/internal/models"
	"github.com/bigredeye/raport/internal/photos"
)

var ErrDuplicateRollNumber = errors.New("roll number is already registered")

type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type Input struct {
	Roll   int
	Name   string
	Scores models.Scores

	// Photo is optional; nil keeps the current photo on update.
	Photo *PhotoUpload
	// DropPhoto clears the current photo on update when no new one is given.
	DropPhoto bool
}

type Result struct {
	Student *models.Student
	// PhotoRejected is set when an upload failed validation; the record is
	// saved without it.
	PhotoRejected error
}

type Manager struct {
	db     *database.DataBase
	photos *photos.Store
	logger *zap.Logger
}

func NewManager(db *database.DataBase, store *photos.Store, logger *zap.Logger) *Manager {
	return &Manager{db, store, logger.With(lf.Module("records"))}
}

// ParseScore never fails: missing, empty or non-numeric input counts as 0.
func ParseScore(value string) int {
	score, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return score
}

// ParseScores reads every subject through lookup (e.g. a form getter).
func ParseScores(lookup func(key string) string) models.Scores {
	scores := models.Scores{}
	for _, subject := range models.Subjects {
		scores.Set(subject.Key, ParseScore(lookup(subject.Key)))
	}
	return scores
}

func (m *Manager) List() ([]models.Student, error) {
	return m.db.ListStudents()
}

func (m *Manager) Find(id uint) (*models.Student, error) {
	return m.db.FindStudentByID(id)
}

// storePhoto splits validation failures, which only drop the photo, from
// I/O failures, which abort the operation.
func (m *Manager) storePhoto(roll int, name string, upload *PhotoUpload) (stored string, rejected error, err error) {
	if upload == nil {
		return "", nil, nil
	}
	stored, err = m.photos.Save(roll, name, upload.Filename, upload.Size, upload.Content)
	if errors.Is(err, photos.ErrUnsupportedExtension) || errors.Is(err, photos.ErrTooLarge) {
		m.logger.Info("Rejected photo", lf.Roll(roll), zap.String("filename", upload.Filename), zap.Error(err))
		return "", err, nil
	}
	return stored, nil, err
}

func (m *Manager) removePhoto(name string) {
	if name == "" {
		return
	}
	if err := m.photos.Remove(name); err != nil {
		m.logger.Warn("Failed to remove photo", lf.Photo(name), zap.Error(err))
	}
}

func classify(err error) error {
	if database.IsDuplicateKey(err) {
		return errors.WithStack(ErrDuplicateRollNumber)
	}
	return err
}

// Create inserts a student. The photo is written only after the insert
// succeeded, so a duplicate roll number never touches another record's file.
func (m *Manager) Create(input Input) (*Result, error) {
	student := &models.Student{
		Roll:   input.Roll,
		Name:   input.Name,
		Scores: input.Scores,
	}
	res := &Result{Student: student}

	var written string
	err := m.db.InTx(func(tx *database.DataBase) error {
		if err := tx.AddStudent(student); err != nil {
			return err
		}

		stored, rejected, err := m.storePhoto(student.Roll, student.Name, input.Photo)
		if err != nil {
			return err
		}
		res.PhotoRejected = rejected
		if stored == "" {
			return nil
		}
		written = stored

		student.Photo = &stored
		return tx.SetStudentPhoto(student.ID, student.Photo)
	})
	if err != nil {
		m.removePhoto(written)
		return nil, classify(err)
	}

	m.logger.Info("Created student", lf.StudentID(student.ID), lf.Roll(student.Roll))
	return res, nil
}

// Update rewrites every field of the student. The row is updated first (so a
// duplicate roll number aborts before any file is touched), then the new photo
// is written and referenced, or the kept one is renamed after the new roll and
// name. The previous photo is removed last.
func (m *Manager) Update(id uint, input Input) (*Result, error) {
	res := &Result{}

	var written, moved, previous string
	err := m.db.InTx(func(tx *database.DataBase) error {
		student, err := tx.FindStudentByID(id)
		if err != nil {
			return err
		}
		previous = student.PhotoName()

		student.Roll = input.Roll
		student.Name = input.Name
		student.Scores = input.Scores
		if input.DropPhoto {
			student.Photo = nil
		}
		res.Student = student
		if err := tx.UpdateStudent(student); err != nil {
			return err
		}

		stored, rejected, err := m.storePhoto(student.Roll, student.Name, input.Photo)
		if err != nil {
			return err
		}
		res.PhotoRejected = rejected
		if stored == "" {
			stored, err = m.followRename(student)
			if err != nil || stored == "" {
				return err
			}
			moved = stored
		} else {
			written = stored
		}

		student.Photo = &stored
		return tx.SetStudentPhoto(student.ID, student.Photo)
	})
	if err != nil {
		if written != previous {
			m.removePhoto(written)
		}
		if moved != "" {
			if err := m.photos.Move(moved, previous); err != nil {
				m.logger.Warn("Failed to restore photo name", lf.Photo(previous), zap.Error(err))
			}
		}
		return nil, classify(err)
	}

	if current := res.Student.PhotoName(); moved == "" && previous != "" && previous != current {
		m.removePhoto(previous)
	}

	m.logger.Info("Updated student", lf.StudentID(id), lf.Roll(input.Roll))
	return res, nil
}

// followRename moves a kept photo to the name matching the student's new roll
// and name. It returns "" when nothing moved.
func (m *Manager) followRename(student *models.Student) (string, error) {
	current := student.PhotoName()
	if current == "" {
		return "", nil
	}
	renamed := photos.Renamed(current, student.Roll, student.Name)
	if renamed == current {
		return "", nil
	}
	if err := m.photos.Move(current, renamed); err != nil {
		return "", err
	}
	return renamed, nil
}

// Delete removes the student and then its photo.
func (m *Manager) Delete(id uint) error {
	var photo string
	err := m.db.InTx(func(tx *database.DataBase) error {
		student, err := tx.FindStudentByID(id)
		if err != nil {
			return err
		}
		photo = student.PhotoName()
		return tx.RemoveStudent(id)
	})
	if err != nil {
		return err
	}

	m.removePhoto(photo)
	m.logger.Info("Deleted student", lf.StudentID(id))
	return nil
}
