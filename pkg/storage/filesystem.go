package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidFilename is returned for names that are not a single segment inside the base dir.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrFileNotFound is returned when the name does not resolve to a regular file.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge is returned by ReadAll when the file exceeds the caller's limit.
	ErrFileTooLarge = errors.New("file too large")
)

// PDFStore serves read access to PDFs kept flat under a base directory.
type PDFStore struct {
	baseDir string
}

// NewPDFStore ensures the base directory exists and returns a handle rooted at its absolute path.
func NewPDFStore(baseDir string) (*PDFStore, error) {
	if baseDir == "" {
		baseDir = "./pdfs"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pdf directory: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve pdf directory: %w", err)
	}
	return &PDFStore{baseDir: filepath.Clean(abs)}, nil
}

// BaseDir returns the absolute directory served by the store.
func (s *PDFStore) BaseDir() string {
	return s.baseDir
}

// IsSafeName reports whether name is a plain file name with no directory component.
func IsSafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}

// Resolve maps a client supplied name to a path inside the base directory.
func (s *PDFStore) Resolve(filename string) (string, error) {
	if !IsSafeName(filename) {
		return "", ErrInvalidFilename
	}
	path := filepath.Join(s.baseDir, filename)
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidFilename
	}
	return path, nil
}

// Stat returns file info for a regular file in the store.
func (s *PDFStore) Stat(filename string) (os.FileInfo, error) {
	path, err := s.Resolve(filename)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("stat pdf %s: %w", filename, err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrFileNotFound
	}
	return info, nil
}

// Exists reports whether filename resolves to a regular file.
func (s *PDFStore) Exists(filename string) (bool, error) {
	if _, err := s.Stat(filename); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open returns a read-only handle and its info. The caller closes the file.
func (s *PDFStore) Open(filename string) (*os.File, os.FileInfo, error) {
	path, err := s.Resolve(filename)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open pdf %s: %w", filename, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat pdf %s: %w", filename, err)
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, nil, ErrFileNotFound
	}
	return file, info, nil
}

// ReadAll loads the whole file into memory. A positive limit caps the accepted size.
func (s *PDFStore) ReadAll(filename string, limit int64) ([]byte, os.FileInfo, error) {
	file, info, err := s.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close() //nolint:errcheck

	if limit > 0 && info.Size() > limit {
		return nil, info, ErrFileTooLarge
	}

	var r io.Reader = file
	if limit > 0 {
		r = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, info, fmt.Errorf("read pdf %s: %w", filename, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, info, ErrFileTooLarge
	}
	return data, info, nil
}
