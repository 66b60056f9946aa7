package log

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755

	secondsPerDay = 24 * 60 * 60
)

// UpdateFileFd manages log file rotation based on time and size limits.
//
// Rotation triggers:
//   - time-based: once the configured hour of day (fileSplitHour) passes
//   - size-based: once the file exceeds fileSplitMB megabytes
//
// Returns the (possibly unchanged) file descriptor and its creation time.
func UpdateFileFd(filePath string, fileSplitHour, fileSplitMB int, oldFD *os.File,
	oldFileCreateTime time.Time) (*os.File, time.Time, error) {
	if len(filePath) == 0 {
		return nil, time.Time{}, errors.New("filename is empty")
	}

	shouldRotate, err := checkRotation(filePath, fileSplitHour, fileSplitMB, oldFD, oldFileCreateTime)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("check rotation: %w", err)
	}

	if !shouldRotate {
		return oldFD, oldFileCreateTime, nil
	}

	newFD, newFileCreateTime, err := openLogFile(filePath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open new log file: %w", err)
	}

	return newFD, newFileCreateTime, nil
}

// checkRotation reports whether rotation is required, renaming the current
// file aside when it is.
func checkRotation(filePath string, fileSplitHour, fileSplitMB int, oldFD *os.File,
	oldFileCreateTime time.Time) (bool, error) {
	if oldFD == nil {
		return true, nil
	}

	now := time.Now()

	fi, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}

	if shouldRotateByTime(oldFileCreateTime, now, fileSplitHour) {
		if err := moveLogFile(oldFD, filePath, now); err != nil {
			return false, fmt.Errorf("move log file by time: %w", err)
		}
		return true, nil
	}

	if shouldRotateBySize(fi.Size(), fileSplitMB) {
		if err := moveLogFile(oldFD, filePath, now); err != nil {
			return false, fmt.Errorf("move log file by size: %w", err)
		}
		return true, nil
	}

	return false, nil
}

// shouldRotateByTime evaluates the time-based rotation trigger: daily
// rotation when crossing the midnight boundary, or hour-specific rotation
// within the same day. splitHour zero disables the check.
func shouldRotateByTime(createTime, now time.Time, splitHour int) bool {
	if splitHour == 0 {
		return false
	}

	createUnix := createTime.Unix()
	nowUnix := now.Unix()

	if createUnix+secondsPerDay <= nowUnix {
		return true
	}

	if createTime.Day() == now.Day() {
		return now.Hour() >= splitHour && createTime.Hour() < splitHour
	}

	return now.Hour() >= splitHour
}

// shouldRotateBySize reports whether the file size exceeds the rotation
// threshold. splitMB zero disables the check.
func shouldRotateBySize(size int64, splitMB int) bool {
	if splitMB == 0 {
		return false
	}

	return size >= int64(splitMB)<<20
}

func moveLogFile(oldFD *os.File, filePath string, now time.Time) error {
	if oldFD != nil {
		if err := oldFD.Close(); err != nil {
			return fmt.Errorf("close old file: %w", err)
		}
	}

	newFilePath, err := generateBackupFileName(filePath, now)
	if err != nil {
		return fmt.Errorf("generate backup filename: %w", err)
	}

	if err := os.Rename(filePath, newFilePath); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}

// generateBackupFileName appends a YYYYMMDD-HHMMSS timestamp to the base
// name, resolving collisions with 1-second increments. Errors out after 5
// attempts rather than looping forever.
func generateBackupFileName(filePath string, now time.Time) (string, error) {
	ext := filepath.Ext(filePath)
	baseName := strings.TrimSuffix(filePath, ext)

	for i := 0; i < 5; i++ {
		timestamp := now.Add(time.Duration(i) * time.Second)
		newFilePath := fmt.Sprintf("%s%s.%04d%02d%02d-%02d%02d%02d",
			baseName,
			ext,
			timestamp.Year(),
			timestamp.Month(),
			timestamp.Day(),
			timestamp.Hour(),
			timestamp.Minute(),
			timestamp.Second(),
		)

		if exists, err := fileExists(newFilePath); err != nil {
			return "", fmt.Errorf("check file existence: %w", err)
		} else if !exists {
			return newFilePath, nil
		}
	}

	return "", errors.New("cannot generate unique backup filename")
}

func fileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat file: %w", err)
}

// openLogFile creates the parent directory if needed and opens the file in
// append mode, returning its creation timestamp.
func openLogFile(filePath string) (*os.File, time.Time, error) {
	dir := path.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return nil, time.Time{}, fmt.Errorf("create directory: %w", err)
		}
	}

	fd, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open file: %w", err)
	}

	fileCreateTime, err := GetFileCreateTime(filePath)
	if err != nil {
		fd.Close()
		return nil, time.Time{}, fmt.Errorf("get file create time: %w", err)
	}

	if fileCreateTime.UnixNano()%int64(time.Second) > int64(time.Second)/2 {
		fileCreateTime = time.Unix(fileCreateTime.Unix()+1, 0)
	}

	return fd, fileCreateTime, nil
}

// GetFileCreateTime returns the file creation timestamp, falling back to
// the modification time since Go does not expose creation time portably.
func GetFileCreateTime(filePath string) (time.Time, error) {
	fi, err := os.Stat(filePath)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
