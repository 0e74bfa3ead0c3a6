package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/bigredeye/raport/internal/models"
)

func openTestDataBase(t *testing.T) *DataBase {
	t.Helper()
	db, err := OpenSQLite(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal("Failed to open database:", err)
	}
	return db
}

func TestAddStudentDuplicateRoll(t *testing.T) {
	db := openTestDataBase(t)

	if err := db.AddStudent(&models.Student{Roll: 7, Name: "Alice"}); err != nil {
		t.Fatal("Failed to add student:", err)
	}
	err := db.AddStudent(&models.Student{Roll: 7, Name: "Bob"})
	if !IsDuplicateKey(err) {
		t.Fatalf("Expected duplicate key, got %v", err)
	}
}

func TestFindStudentNotFound(t *testing.T) {
	db := openTestDataBase(t)

	if _, err := db.FindStudentByRoll(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := db.FindStudentByID(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := db.RemoveStudent(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListStudentsOrder(t *testing.T) {
	db := openTestDataBase(t)

	for _, roll := range []int{3, 1, 2} {
		if err := db.AddStudent(&models.Student{Roll: roll, Name: "student"}); err != nil {
			t.Fatal(err)
		}
	}

	byRoll, err := db.ListStudents()
	if err != nil {
		t.Fatal(err)
	}
	byID, err := db.ListStudentsByID()
	if err != nil {
		t.Fatal(err)
	}

	rolls := func(students []models.Student) (res []int) {
		for _, s := range students {
			res = append(res, s.Roll)
		}
		return
	}
	if diff := cmp.Diff([]int{1, 2, 3}, rolls(byRoll)); diff != "" {
		t.Fatalf("Invalid roll order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 1, 2}, rolls(byID)); diff != "" {
		t.Fatalf("Invalid id order (-want +got):\n%s", diff)
	}
}

func TestUpdateStudentWritesZeroScores(t *testing.T) {
	db := openTestDataBase(t)

	student := &models.Student{Roll: 1, Name: "Alice", Scores: models.Scores{Math: 90, Coding: 80}}
	if err := db.AddStudent(student); err != nil {
		t.Fatal(err)
	}

	student.Math = 0
	student.Name = "Alice Liddell"
	if err := db.UpdateStudent(student); err != nil {
		t.Fatal(err)
	}

	stored, err := db.FindStudentByID(student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(student, stored); diff != "" {
		t.Fatalf("Unexpected stored student (-want +got):\n%s", diff)
	}

	missing := &models.Student{ID: student.ID + 100, Roll: 5, Name: "Nobody"}
	if err := db.UpdateStudent(missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAdminPassword(t *testing.T) {
	db := openTestDataBase(t)

	count, err := db.CountAdmins()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("Fresh database has %d admins", count)
	}

	if err := db.AddAdmin(&models.Admin{Username: "admin", PasswordHash: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetAdminPassword("admin", "new"); err != nil {
		t.Fatal(err)
	}
	admin, err := db.FindAdminByUsername("admin")
	if err != nil {
		t.Fatal(err)
	}
	if admin.PasswordHash != "new" {
		t.Fatalf("Invalid password hash: %s", admin.PasswordHash)
	}
	if err := db.SetAdminPassword("root", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
