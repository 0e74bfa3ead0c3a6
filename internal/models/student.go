package models

import "gorm.io/gorm"

// Subject describes one of the ten graded subjects. Key is the form/import
// field name, Title is what the views print.
type Subject struct {
	Key   string
	Title string
}

var Subjects = []Subject{
	{Key: "b_inggris", Title: "Bahasa Inggris"},
	{Key: "b_indo", Title: "Bahasa Indonesia"},
	{Key: "b_sunda", Title: "Bahasa Sunda"},
	{Key: "mtk", Title: "Matematika"},
	{Key: "fisika", Title: "Fisika"},
	{Key: "kimia", Title: "Kimia"},
	{Key: "coding", Title: "Coding"},
	{Key: "pjok", Title: "PJOK"},
	{Key: "pkn", Title: "PKN"},
	{Key: "agama", Title: "Agama"},
}

type Scores struct {
	English           int `gorm:"not null;default:0"`
	Indonesian        int `gorm:"not null;default:0"`
	Sundanese         int `gorm:"not null;default:0"`
	Math              int `gorm:"not null;default:0"`
	Physics           int `gorm:"not null;default:0"`
	Chemistry         int `gorm:"not null;default:0"`
	Coding            int `gorm:"not null;default:0"`
	PhysicalEducation int `gorm:"not null;default:0"`
	Civics            int `gorm:"not null;default:0"`
	Religion          int `gorm:"not null;default:0"`
}

func (s *Scores) ref(key string) *int {
	switch key {
	case "b_inggris":
		return &s.English
	case "b_indo":
		return &s.Indonesian
	case "b_sunda":
		return &s.Sundanese
	case "mtk":
		return &s.Math
	case "fisika":
		return &s.Physics
	case "kimia":
		return &s.Chemistry
	case "coding":
		return &s.Coding
	case "pjok":
		return &s.PhysicalEducation
	case "pkn":
		return &s.Civics
	case "agama":
		return &s.Religion
	default:
		return nil
	}
}

// Get returns the score stored under the subject key, 0 for unknown keys.
func (s Scores) Get(key string) int {
	if v := s.ref(key); v != nil {
		return *v
	}
	return 0
}

// Set reports whether key names a subject.
func (s *Scores) Set(key string, value int) bool {
	v := s.ref(key)
	if v == nil {
		return false
	}
	*v = value
	return true
}

// Total is never stored, every reader recomputes it from the ten subjects.
func (s Scores) Total() int {
	return s.English + s.Indonesian + s.Sundanese +
		s.Math + s.Physics + s.Chemistry +
		s.Coding + s.PhysicalEducation + s.Civics + s.Religion
}

type Student struct {
	ID    uint   `gorm:"primaryKey"`
	Roll  int    `gorm:"uniqueIndex;not null"`
	Name  string `gorm:"not null"`
	Photo *string

	Scores `gorm:"embedded"`
}

// PhotoName is the stored photo reference or "" when there is none.
func (s Student) PhotoName() string {
	if s.Photo == nil {
		return ""
	}
	return *s.Photo
}

type Admin struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}
