package scorer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v2"

	"github.com/bigredeye/raport/internal/database"
	"github.com/bigredeye/raport/internal/models"
)

// fakeStore keeps students in id order, like the real store does.
type fakeStore struct {
	students []models.Student
}

func (f *fakeStore) add(roll int, name string, scores models.Scores) {
	f.students = append(f.students, models.Student{
		ID:     uint(len(f.students) + 1),
		Roll:   roll,
		Name:   name,
		Scores: scores,
	})
}

func (f *fakeStore) FindStudentByRoll(roll int) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].Roll == roll {
			student := f.students[i]
			return &student, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) ListStudentsByID() ([]models.Student, error) {
	res := make([]models.Student, len(f.students))
	copy(res, f.students)
	return res, nil
}

func uniform(score int) models.Scores {
	scores := models.Scores{}
	for _, subject := range models.Subjects {
		scores.Set(subject.Key, score)
	}
	return scores
}

func checkLookup(t *testing.T, scorer *Scorer, roll, total, rank, count int) {
	t.Helper()
	res, err := scorer.Lookup(roll)
	if err != nil {
		t.Fatalf("Lookup(%d) failed: %v", roll, err)
	}
	got := [3]int{res.Total, res.Rank, res.Count}
	expected := [3]int{total, rank, count}
	if got != expected {
		t.Fatalf("Lookup(%d) = total %d rank %d count %d, expected total %d rank %d count %d",
			roll, got[0], got[1], got[2], total, rank, count)
	}
}

func TestLookupScenario(t *testing.T) {
	store := &fakeStore{}
	scorer := NewScorer(store, zaptest.NewLogger(t))

	store.add(1, "Alice", uniform(10))
	checkLookup(t, scorer, 1, 100, 1, 1)

	store.add(2, "Bob", uniform(5))
	checkLookup(t, scorer, 1, 100, 1, 2)
	checkLookup(t, scorer, 2, 50, 2, 2)
}

func TestLookupScenarioSingleSubject(t *testing.T) {
	store := &fakeStore{}
	scorer := NewScorer(store, zaptest.NewLogger(t))

	store.add(1, "Alice", models.Scores{English: 10})
	checkLookup(t, scorer, 1, 10, 1, 1)

	store.add(2, "Bob", models.Scores{English: 5})
	checkLookup(t, scorer, 1, 10, 1, 2)
	checkLookup(t, scorer, 2, 5, 2, 2)
}

func TestLookupNotFound(t *testing.T) {
	store := &fakeStore{}
	scorer := NewScorer(store, zaptest.NewLogger(t))
	store.add(1, "Alice", uniform(1))

	_, err := scorer.Lookup(42)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

const classYaml = `
- roll: 4
  total: 70
- roll: 1
  total: 90
- roll: 7
  total: 70
- roll: 2
  total: 100
- roll: 9
  total: 0
`

type fixture struct {
	Roll  int
	Total int
}

func TestStandingsOrder(t *testing.T) {
	fixtures := []fixture{}
	if err := yaml.Unmarshal([]byte(classYaml), &fixtures); err != nil {
		t.Fatal("Failed to parse fixtures:", err)
	}

	store := &fakeStore{}
	for _, f := range fixtures {
		store.add(f.Roll, "student", models.Scores{Math: f.Total})
	}
	scorer := NewScorer(store, zaptest.NewLogger(t))

	standings, err := scorer.Standings()
	if err != nil {
		t.Fatal(err)
	}

	type row struct {
		Roll, Total, Rank int
	}
	got := make([]row, len(standings))
	for i, s := range standings {
		got[i] = row{s.Student.Roll, s.Total, s.Rank}
	}

	// equal totals keep creation order: roll 4 was added before roll 7
	expected := []row{
		{2, 100, 1},
		{1, 90, 2},
		{4, 70, 3},
		{7, 70, 4},
		{9, 0, 5},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("Invalid standings (-want +got):\n%s", diff)
	}

	for _, s := range standings {
		res, err := scorer.Lookup(s.Student.Roll)
		if err != nil {
			t.Fatal(err)
		}
		if res.Rank < 1 || res.Rank > res.Count {
			t.Fatalf("Rank %d out of [1, %d]", res.Rank, res.Count)
		}
		if res.Rank != s.Rank || res.Total != s.Total {
			t.Fatalf("Lookup(%d) disagrees with standings: %+v vs %+v", s.Student.Roll, res, s)
		}
		if res.Total != res.Student.Total() {
			t.Fatalf("Lookup total %d differs from student total %d", res.Total, res.Student.Total())
		}
	}
}

func TestRankByID(t *testing.T) {
	standings := rank([]models.Student{
		{ID: 1, Roll: 1, Scores: models.Scores{Math: 1}},
		{ID: 2, Roll: 2, Scores: models.Scores{Math: 2}},
	})
	byID := RankByID(standings)
	if byID[2].Rank != 1 || byID[1].Rank != 2 {
		t.Fatalf("Invalid ranks: %+v", byID)
	}
}

func TestStandingsEmpty(t *testing.T) {
	scorer := NewScorer(&fakeStore{}, zaptest.NewLogger(t))
	standings, err := scorer.Standings()
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 0 {
		t.Fatalf("Expected no standings, got %d", len(standings))
	}
}
