package scorer

import "github.com/bigredeye/raport/internal/models"

type Standing struct {
	Student models.Student
	Total   int
	// Rank is the 1-based position in the descending-total order.
	Rank int
}

type Result struct {
	Student *models.Student
	Total   int
	Rank    int
	Count   int
}
