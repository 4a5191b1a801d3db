package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nexusprep/internal/dataprocessing"
)

// Sentinel errors for input files
var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrFileTooLarge  = errors.New("file exceeds the size limit")
	ErrTemporaryFile = errors.New("file is a temporary office lock file")
)

// DefaultMaxFileBytes caps a single input file.
const DefaultMaxFileBytes int64 = 50 << 20

// FileValidator checks input and output paths before parsing
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes <= 0 uses DefaultMaxFileBytes.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &FileValidator{
		logger:   logger.With("component", "file_validator"),
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the per-file size limit
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks an uploaded file's name and size before it is read
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%s: %w", base, ErrTemporaryFile)
	}
	if _, err := dataprocessing.DetectFormat(base); err != nil {
		return fmt.Errorf("%s: %w", base, err)
	}
	if size == 0 {
		return fmt.Errorf("%s: %w", base, ErrEmptyFile)
	}
	if size > v.maxBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", base, size, v.maxBytes, ErrFileTooLarge)
	}
	return nil
}

// ValidateInputFile checks that path is a readable, supported, non-empty file
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("input_file_missing", slog.String("file", path))
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	if err != nil {
		v.logger.Error("input_file_stat_failed",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	if err := v.ValidateUpload(path, info.Size()); err != nil {
		v.logger.Warn("input_file_rejected",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("input_file_validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ExpandInputs resolves the CLI arguments into files. Directories contribute their
// supported files, sorted by name; explicit files are kept in argument order.
func (v *FileValidator) ExpandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			if _, err := dataprocessing.DetectFormat(e.Name()); err == nil {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		if len(found) == 0 {
			v.logger.Warn("input_directory_empty", slog.String("directory", arg))
		}
		files = append(files, found...)
	}
	return files, nil
}

// ValidateOutputDirectory ensures the directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("output_directory_create_failed",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}
