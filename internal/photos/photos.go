package photos

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alexsergivan/transliterator"
	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	lf "github.com/bigredeye/raport/internal/logfield"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported photo extension")
	ErrTooLarge             = errors.New("photo is too large")
	ErrInvalidName          = errors.New("invalid photo name")
)

type Store struct {
	dir        string
	maxSize    int64
	extensions map[string]struct{}
	logger     *zap.Logger
}

func NewStore(logger *zap.Logger, dir string, maxSize int64, extensions []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "Failed to create uploads directory")
	}

	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &Store{
		dir:        dir,
		maxSize:    maxSize,
		extensions: allowed,
		logger:     logger.With(lf.Module("photos")),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Accept checks an upload against the allow-list and the size cap and
// returns its normalized extension.
func (s *Store) Accept(filename string, size int64) (string, error) {
	ext := extension(filename)
	if _, ok := s.extensions[ext]; !ok || ext == "" {
		return "", errors.Wrapf(ErrUnsupportedExtension, "%q", filename)
	}
	if size > s.maxSize {
		return "", errors.Wrapf(ErrTooLarge, "%s exceeds %s", units.BytesSize(float64(size)), units.BytesSize(float64(s.maxSize)))
	}
	return ext, nil
}

// Save validates the upload and stores it as FileName(roll, name, ext),
// replacing any file with that name. It returns the stored name.
func (s *Store) Save(roll int, name, filename string, size int64, content io.Reader) (string, error) {
	ext, err := s.Accept(filename, size)
	if err != nil {
		return "", err
	}

	stored := FileName(roll, name, ext)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "Failed to create temporary photo file")
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.LimitReader(content, s.maxSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "Failed to write photo")
	}
	if written > s.maxSize {
		return "", errors.Wrapf(ErrTooLarge, "%s exceeds %s", units.BytesSize(float64(written)), units.BytesSize(float64(s.maxSize)))
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, stored)); err != nil {
		return "", errors.Wrap(err, "Failed to store photo")
	}

	s.logger.Info("Stored photo", lf.Photo(stored), lf.Roll(roll), zap.Int64("size", written))
	return stored, nil
}

// Remove deletes a stored photo; a missing file is not an error.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "Failed to remove photo")
	}
	s.logger.Info("Removed photo", lf.Photo(name))
	return nil
}

// Move renames a stored photo, replacing any file with the target name. A
// missing source is not an error.
func (s *Store) Move(from, to string) error {
	src, err := s.Path(from)
	if err != nil {
		return err
	}
	dst, err := s.Path(to)
	if err != nil {
		return err
	}
	err = os.Rename(src, dst)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "Failed to rename photo")
	}
	s.logger.Info("Renamed photo", lf.Photo(to), zap.String("from", from))
	return nil
}

// Path resolves a stored photo name inside the uploads directory. Names that
// would escape the directory are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

var (
	trans       = transliterator.NewTransliterator(nil)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// FileName builds the deterministic "{roll}_{name}.{ext}" photo name. Two
// students with the same roll, name and extension map to the same file, so a
// later upload replaces the earlier one. Stored photos follow roll and name
// changes (see Renamed), so a file name always belongs to the record that
// currently holds that roll number.
func FileName(roll int, name, ext string) string {
	return secureFilename(fmt.Sprintf("%d_%s.%s", roll, name, ext))
}

// Renamed is the name a stored photo should carry once its student has the
// given roll and name.
func Renamed(stored string, roll int, name string) string {
	return FileName(roll, name, extension(stored))
}

func secureFilename(filename string) string {
	ascii := trans.Transliterate(filename, "")
	ascii = strings.Join(strings.Fields(ascii), "_")
	ascii = unsafeChars.ReplaceAllString(ascii, "")
	return strings.TrimLeft(ascii, "._")
}
