package files

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofast/gofast/internal/utils"
)

const zipType = "application/zip"

// Load validates path and reads it for sending. A directory is zipped in
// memory and sent as <name>.zip.
func Load(path string, maxSize int64) (FileInfo, []byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, nil, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil || !stat.IsDir() {
		info, err := ValidateFile(path, maxSize)
		if err != nil {
			return FileInfo{}, nil, err
		}
		data, err := info.Read()
		if err != nil {
			return FileInfo{}, nil, err
		}
		return info, data, nil
	}

	var buf bytes.Buffer
	if err := utils.ZipDirectory(absPath, &buf); err != nil {
		return FileInfo{}, nil, fmt.Errorf("%s: failed to zip directory: %w", path, err)
	}
	if maxSize > 0 && int64(buf.Len()) > maxSize {
		return FileInfo{}, nil, fmt.Errorf("%s: %w (%d > %d bytes zipped)", path, ErrTooLarge, buf.Len(), maxSize)
	}

	return FileInfo{
		Path: absPath,
		Name: filepath.Base(absPath) + ".zip",
		Size: int64(buf.Len()),
		Type: zipType,
	}, buf.Bytes(), nil
}
