package models

import "testing"

func TestScoresTotal(t *testing.T) {
	scores := Scores{}
	for i, subject := range Subjects {
		if !scores.Set(subject.Key, i+1) {
			t.Fatalf("Unknown subject key %s", subject.Key)
		}
	}

	if total := scores.Total(); total != 55 {
		t.Fatalf("Invalid total: %d, expected: %d", total, 55)
	}

	sum := 0
	for _, subject := range Subjects {
		sum += scores.Get(subject.Key)
	}
	if sum != scores.Total() {
		t.Fatalf("Total %d differs from per-subject sum %d", scores.Total(), sum)
	}
}

func TestScoresUnknownKey(t *testing.T) {
	scores := Scores{}
	if scores.Set("astronomy", 100) {
		t.Fatal("Unknown subject accepted")
	}
	if v := scores.Get("astronomy"); v != 0 {
		t.Fatalf("Invalid score for unknown subject: %d", v)
	}
	if scores.Total() != 0 {
		t.Fatalf("Unknown subject changed total: %d", scores.Total())
	}
}

func TestSubjectsAreDistinct(t *testing.T) {
	if len(Subjects) != 10 {
		t.Fatalf("Invalid number of subjects: %d", len(Subjects))
	}
	seen := make(map[string]bool)
	for _, subject := range Subjects {
		if seen[subject.Key] {
			t.Fatalf("Duplicate subject key %s", subject.Key)
		}
		seen[subject.Key] = true
	}
}

func TestPhotoName(t *testing.T) {
	student := Student{}
	if student.PhotoName() != "" {
		t.Fatalf("Invalid photo name: %q", student.PhotoName())
	}
	photo := "1_Alice.png"
	student.Photo = &photo
	if student.PhotoName() != photo {
		t.Fatalf("Invalid photo name: %q", student.PhotoName())
	}
}
