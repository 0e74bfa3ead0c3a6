package scorer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/bigredeye/raport/internal/database"
	lf "github.com/bigredeye/raport/internal/logfield"
	"github.com/bigredeye/raport/internal/models"
)

type StudentStore interface {
	FindStudentByRoll(roll int) (*models.Student, error)
	ListStudentsByID() ([]models.Student, error)
}

type Scorer struct {
	db     StudentStore
	logger *zap.Logger
}

func NewScorer(db StudentStore, logger *zap.Logger) *Scorer {
	return &Scorer{db, logger.With(lf.Module("scorer"))}
}

// Standings ranks every student by total score. Equal totals keep the
// store's id order, so the student created first is ranked ahead.
func (s Scorer) Standings() ([]Standing, error) {
	students, err := s.db.ListStudentsByID()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list students")
	}
	return rank(students), nil
}

func rank(students []models.Student) []Standing {
	standings := make([]Standing, len(students))
	for i := range students {
		standings[i] = Standing{
			Student: students[i],
			Total:   students[i].Total(),
		}
	}

	slices.SortStableFunc(standings, func(a, b Standing) bool {
		return a.Total > b.Total
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Lookup returns the total and rank of the student with the given roll
// number, or database.ErrNotFound.
func (s Scorer) Lookup(roll int) (*Result, error) {
	student, err := s.db.FindStudentByRoll(roll)
	if err != nil {
		return nil, err
	}

	standings, err := s.Standings()
	if err != nil {
		return nil, err
	}

	for _, standing := range standings {
		if standing.Student.ID != student.ID {
			continue
		}
		s.logger.Debug("Ranked student",
			lf.Roll(roll),
			lf.Total(standing.Total),
			lf.Rank(standing.Rank),
		)
		return &Result{
			Student: &standing.Student,
			Total:   standing.Total,
			Rank:    standing.Rank,
			Count:   len(standings),
		}, nil
	}

	// Deleted between the two queries.
	return nil, database.ErrNotFound
}

// RankByID maps student ids to their rank, for views listed in another order.
func RankByID(standings []Standing) map[uint]Standing {
	res := make(map[uint]Standing, len(standings))
	for _, standing := range standings {
		res[standing.Student.ID] = standing
	}
	return res
}
