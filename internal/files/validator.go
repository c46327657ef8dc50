package files

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

var (
	ErrNotExist    = errors.New("file does not exist")
	ErrIsDirectory = errors.New("is a directory")
	ErrTooLarge    = errors.New("file exceeds size limit")
)

// FileInfo holds information about a file to be sent
type FileInfo struct {
	// Path is the absolute path to the file
	Path string

	// Name is the filename (without directory)
	Name string

	// Size is the file size in bytes
	Size int64

	// Type is the MIME type of the file (e.g., "application/pdf", "text/plain")
	Type string
}

// ValidateFile checks that path is a readable regular file no larger than
// maxSize and returns its info.
func ValidateFile(path string, maxSize int64) (FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return FileInfo{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	if maxSize > 0 && stat.Size() > maxSize {
		return FileInfo{}, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, stat.Size(), maxSize)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	defer file.Close()

	return FileInfo{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: detectType(absPath, file),
	}, nil
}

// Read loads the whole file. It fails if the file changed size since it
// was validated.
func (f FileInfo) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	if int64(len(data)) != f.Size {
		return nil, fmt.Errorf("%s: size changed from %d to %d bytes", f.Name, f.Size, len(data))
	}
	return data, nil
}

// detectType uses the extension first and sniffs the content otherwise.
func detectType(path string, r io.Reader) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(r, head)
	if n == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(head[:n])
}
