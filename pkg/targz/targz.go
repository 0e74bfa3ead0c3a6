package targz

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Visitor interface {
	VisitDirectory(name string, info fs.FileInfo) error
	VisitFile(name string, info fs.FileInfo) (io.WriteCloser, error)
}

// Archive writes every regular file under root into a gzipped tarball with
// root-relative slash-separated names.
func Archive(output io.Writer, root string) error {
	gzipWriter := gzip.NewWriter(output)
	tarWriter := tar.NewWriter(gzipWriter)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			header.Name += "/"
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tarWriter, f)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "Failed to archive directory")
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func Extract(input io.Reader, visitor Visitor) error {
	gzipReader, err := gzip.NewReader(input)
	if err != nil {
		return err
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		name, err := cleanName(header.Name)
		if err != nil {
			return err
		}
		info := header.FileInfo()
		switch header.Typeflag {
		case tar.TypeDir:
			if err := visitor.VisitDirectory(name, info); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := extractFile(tarReader, visitor, name, info); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractFile(input io.Reader, visitor Visitor, name string, info fs.FileInfo) error {
	writer, err := visitor.VisitFile(name, info)
	if err != nil {
		return err
	}
	if _, err := io.Copy(writer, input); err != nil {
		writer.Close()
		return errors.Wrapf(err, "Failed to extract %s", name)
	}
	return writer.Close()
}

// cleanName rejects entries that would land outside the extraction root.
func cleanName(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("illegal archive entry %q", name)
	}
	return clean, nil
}

type fsVisitor struct {
	root string
}

func (v *fsVisitor) VisitDirectory(name string, info fs.FileInfo) error {
	return os.MkdirAll(filepath.Join(v.root, name), 0o755)
}

func (v *fsVisitor) VisitFile(name string, info fs.FileInfo) (io.WriteCloser, error) {
	path := filepath.Join(v.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
}

func ExtractToDir(input io.Reader, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	return Extract(input, &fsVisitor{path})
}
