package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	lf "github.com/bigredeye/raport/internal/logfield"
	"github.com/bigredeye/raport/internal/models"
	"github.com/bigredeye/raport/internal/photos"
	"github.com/bigredeye/raport/internal/records"
)

type importRecord struct {
	Roll   int                    `yaml:"absen"`
	Name   string                 `yaml:"nama"`
	Scores map[string]interface{} `yaml:"nilai"`
	// Photo is a path relative to the import file.
	Photo string `yaml:"foto"`
}

func parseImport(data []byte) ([]importRecord, error) {
	var recs []importRecord
	if err := yaml.UnmarshalStrict(data, &recs); err != nil {
		return nil, errors.Wrap(err, "Failed to parse import file")
	}
	for i, rec := range recs {
		if rec.Name == "" {
			return nil, errors.Errorf("record #%d (absen %d) has no name", i+1, rec.Roll)
		}
		for key := range rec.Scores {
			if !knownSubject(key) {
				return nil, errors.Errorf("record #%d (absen %d) has unknown subject %q", i+1, rec.Roll, key)
			}
		}
	}
	return recs, nil
}

func knownSubject(key string) bool {
	for _, subject := range models.Subjects {
		if subject.Key == key {
			return true
		}
	}
	return false
}

// input converts scores with the same permissive rules as the admin form.
func (r importRecord) input() records.Input {
	return records.Input{
		Roll: r.Roll,
		Name: r.Name,
		Scores: records.ParseScores(func(key string) string {
			value, ok := r.Scores[key]
			if !ok || value == nil {
				return ""
			}
			return fmt.Sprint(value)
		}),
	}
}

func makeImportCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create students from a yaml file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importStudents(file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the yaml file")
	check(cmd.MarkFlagRequired("file"))

	return cmd
}

func importStudents(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "Failed to read import file")
	}
	recs, err := parseImport(data)
	if err != nil {
		return err
	}

	conf, db, err := openDataBase()
	if err != nil {
		return err
	}
	maxSize, err := conf.PhotoMaxSize()
	if err != nil {
		return err
	}
	store, err := photos.NewStore(log, conf.Uploads.Dir, maxSize, conf.Uploads.Extensions)
	if err != nil {
		return err
	}
	manager := records.NewManager(db, store, log)

	created, skipped := 0, 0
	for _, rec := range recs {
		ok, err := importOne(manager, filepath.Dir(file), rec)
		if err != nil {
			return err
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	log.Info("Import finished", zap.Int("created", created), zap.Int("skipped", skipped))
	return nil
}

func importOne(manager *records.Manager, base string, rec importRecord) (bool, error) {
	input := rec.input()
	if rec.Photo != "" {
		path := rec.Photo
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return false, errors.Wrapf(err, "Failed to open photo of absen %d", rec.Roll)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return false, errors.Wrapf(err, "Failed to stat photo of absen %d", rec.Roll)
		}
		input.Photo = &records.PhotoUpload{
			Filename: filepath.Base(path),
			Size:     info.Size(),
			Content:  f,
		}
	}

	res, err := manager.Create(input)
	if errors.Is(err, records.ErrDuplicateRollNumber) {
		log.Warn("Skipping already registered student", lf.Roll(rec.Roll), zap.String("name", rec.Name))
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "Failed to import absen %d", rec.Roll)
	}
	if res.PhotoRejected != nil {
		log.Warn("Photo was not stored", lf.Roll(rec.Roll), zap.Error(res.PhotoRejected))
	}
	return true, nil
}
