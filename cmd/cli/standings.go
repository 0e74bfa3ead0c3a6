package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bigredeye/raport/internal/database"
	"github.com/bigredeye/raport/internal/models"
	"github.com/bigredeye/raport/internal/scorer"
)

func makeStandingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "standings",
		Short: "Print every student ranked by total score",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDataBase()
			if err != nil {
				return err
			}
			return dumpStandings(scorer.NewScorer(db, log))
		},
	}
}

func dumpStandings(s *scorer.Scorer) error {
	standings, err := s.Standings()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tABSEN\tNAMA\tTOTAL")
	for _, standing := range standings {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\n", standing.Rank, standing.Student.Roll, standing.Student.Name, standing.Total)
	}
	return w.Flush()
}

func makeLookupCommand() *cobra.Command {
	var roll int
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Print the report card of one student",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDataBase()
			if err != nil {
				return err
			}
			return lookup(scorer.NewScorer(db, log), roll)
		},
	}
	cmd.Flags().IntVar(&roll, "roll", 0, "Roll number (nomor absen)")
	check(cmd.MarkFlagRequired("roll"))

	return cmd
}

func lookup(s *scorer.Scorer, roll int) error {
	res, err := s.Lookup(roll)
	if errors.Is(err, database.ErrNotFound) {
		return errors.Errorf("no student with roll number %d", roll)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Nama\t%s\n", res.Student.Name)
	fmt.Fprintf(w, "Absen\t%d\n", res.Student.Roll)
	for _, subject := range models.Subjects {
		fmt.Fprintf(w, "%s\t%d\n", subject.Title, res.Student.Get(subject.Key))
	}
	fmt.Fprintf(w, "Total\t%d\n", res.Total)
	fmt.Fprintf(w, "Peringkat\t%d / %d\n", res.Rank, res.Count)
	return w.Flush()
}
