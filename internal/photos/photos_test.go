package photos

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "uploads"), 2*1024*1024, []string{"png", "jpg", "jpeg", "gif"})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestFileName(t *testing.T) {
	for _, tc := range []struct {
		roll     int
		name     string
		ext      string
		expected string
	}{
		{1, "Alice", "png", "1_Alice.png"},
		{12, "Siti Nurhaliza", "jpg", "12_Siti_Nurhaliza.jpg"},
		{3, "../../etc/passwd", "gif", "3_....etcpasswd.gif"},
		{4, "José Müller", "jpeg", "4_Jose_Muller.jpeg"},
		{5, "a/b\\c", "png", "5_abc.png"},
	} {
		if got := FileName(tc.roll, tc.name, tc.ext); got != tc.expected {
			t.Errorf("FileName(%d, %q, %q) = %q, expected %q", tc.roll, tc.name, tc.ext, got, tc.expected)
		}
	}
}

func TestAccept(t *testing.T) {
	store := newTestStore(t)

	for _, tc := range []struct {
		filename string
		size     int64
		ext      string
		err      error
	}{
		{"photo.png", 100, "png", nil},
		{"PHOTO.JPG", 100, "jpg", nil},
		{"archive.tar.gif", 100, "gif", nil},
		{"virus.exe", 100, "", ErrUnsupportedExtension},
		{"noextension", 100, "", ErrUnsupportedExtension},
		{"photo.", 100, "", ErrUnsupportedExtension},
		{"big.png", 2*1024*1024 + 1, "", ErrTooLarge},
		{"exact.png", 2 * 1024 * 1024, "png", nil},
	} {
		ext, err := store.Accept(tc.filename, tc.size)
		if !errors.Is(err, tc.err) {
			t.Errorf("Accept(%q, %d) error = %v, expected %v", tc.filename, tc.size, err, tc.err)
		}
		if ext != tc.ext {
			t.Errorf("Accept(%q, %d) ext = %q, expected %q", tc.filename, tc.size, ext, tc.ext)
		}
	}
}

func TestSaveAndRemove(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(1, "Alice", "me.PNG", 4, bytes.NewReader([]byte("\x89PNG")))
	if err != nil {
		t.Fatal(err)
	}
	if name != "1_Alice.png" {
		t.Fatalf("Invalid stored name: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "\x89PNG" {
		t.Fatalf("Invalid stored content: %q", data)
	}

	if err := store.Remove(name); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
		t.Fatalf("Photo still exists: %v", err)
	}
	if err := store.Remove(name); err != nil {
		t.Fatal("Removing a missing photo failed:", err)
	}
}

func TestSaveRejectsLyingSize(t *testing.T) {
	store, err := NewStore(zaptest.NewLogger(t), t.TempDir(), 8, []string{"png"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Save(1, "Alice", "me.png", 4, bytes.NewReader(make([]byte, 64)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("Rejected upload left %d files behind", len(entries))
	}
}

func TestPath(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Path("1_Alice.png"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", ".", "..", "../secret", "a/b.png", ".upload-123"} {
		if _, err := store.Path(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) error = %v, expected ErrInvalidName", name, err)
		}
	}
}

func TestMove(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save(1, "Alice", "a.png", 5, bytes.NewReader([]byte("alice")))
	if err != nil {
		t.Fatal(err)
	}
	renamed := Renamed(stored, 7, "Alice Wonder")
	if renamed != "7_Alice_Wonder.png" {
		t.Fatalf("Unexpected renamed photo %q", renamed)
	}

	if err := store.Move(stored, renamed); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), stored)); !os.IsNotExist(err) {
		t.Fatal("Source photo still exists")
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), renamed))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "alice" {
		t.Fatalf("Unexpected moved content %q", data)
	}

	if err := store.Move("missing.png", "other.png"); err != nil {
		t.Fatalf("Moving a missing photo failed: %v", err)
	}
	if err := store.Move(renamed, "../escape.png"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Expected ErrInvalidName, got %v", err)
	}
}
