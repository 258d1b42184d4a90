package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// TempDir is a temporary directory that can be cleaned up.
type TempDir struct {
	path string
}

// CreateTempDir creates a new randomly-named temporary directory under
// baseDir using prefix, e.g. "<prefix>_<random>".
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	rand, err := generateRandomString(8)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(baseDir, fmt.Sprintf("%s_%s", prefix, rand))
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", path, err)
	}
	return &TempDir{path: path}, nil
}

// Path returns the directory's path.
func (t *TempDir) Path() string {
	return t.path
}

// Cleanup removes the directory and everything under it.
func (t *TempDir) Cleanup() error {
	return os.RemoveAll(t.path)
}

// TempFile is a temporary file that can be cleaned up.
type TempFile struct {
	path string
	file *os.File
}

// CreateTempFile creates a new randomly-named temporary file under
// baseDir with the given prefix and extension.
func CreateTempFile(baseDir, prefix, ext string) (*TempFile, error) {
	path, err := CreateTempFilePath(baseDir, prefix, ext)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file %s: %w", path, err)
	}
	return &TempFile{path: path, file: f}, nil
}

// Cleanup closes and removes the file.
func (t *TempFile) Cleanup() error {
	if t.file != nil {
		_ = t.file.Close()
	}
	return os.Remove(t.path)
}

// CreateTempFilePath generates a randomly-named path under baseDir
// without creating the file.
func CreateTempFilePath(baseDir, prefix, ext string) (string, error) {
	rand, err := generateRandomString(8)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.%s", prefix, rand, ext)
	return filepath.Join(baseDir, name), nil
}

// CleanupStaleTempFiles removes files under dir whose name starts with
// prefix and whose modification time is older than maxAge. Returns the
// number of files removed. A non-existent dir is not an error.
func CleanupStaleTempFiles(dir, prefix string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || len(entry.Name()) < len(prefix) || entry.Name()[:len(prefix)] != prefix {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// EnsureDirectoryWritable verifies path exists, is a directory, and
// accepts a file write, by creating and removing a marker file.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory %s not accessible: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	probe, err := CreateTempFile(path, ".writetest", "tmp")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", path, err)
	}
	return probe.Cleanup()
}

// GetAvailableSpace returns the free space in bytes on the filesystem
// containing path, or 0 if it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize)
}

// DiskSpaceWarningThreshold is the free-space floor below which
// CheckDiskSpace logs a warning.
const DiskSpaceWarningThreshold = 512 * MiB

// CheckDiskSpace warns via logger (if non-nil) when available space at
// path falls below DiskSpaceWarningThreshold. It never fails the
// caller; disk-space detection is advisory only.
func CheckDiskSpace(path string, logger func(format string, args ...any)) error {
	available := GetAvailableSpace(path)
	if available == 0 {
		return nil
	}
	if available < DiskSpaceWarningThreshold && logger != nil {
		logger("low disk space at %s: %s available", path, FormatBytes(available))
	}
	return nil
}

func generateRandomString(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return hex.EncodeToString(buf)[:n], nil
}
