package fileutil

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/harrison/grader/internal/models"
)

// LoadOptions configures solution loading
type LoadOptions struct {
	// Exclude lists base names that are not solutions (e.g. "rules.toml")
	Exclude []string
}

// LoadSolutions reads every regular file directly inside dir.
func LoadSolutions(dir string, opts LoadOptions) ([]models.SolutionFile, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, models.NewFileSystemError(dir, "cannot open directory", err)
	}
	defer f.Close()

	// File.ReadDir keeps the storage order, unlike os.ReadDir which sorts
	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, models.NewFileSystemError(dir, "cannot list directory", err)
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	files := make([]models.SolutionFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if excluded[name] {
			continue
		}

		path := filepath.Join(dir, name)

		// Follow symlinks, then skip directories, pipes, sockets and devices
		info, err := os.Stat(path)
		if err != nil {
			return nil, models.NewFileSystemError(path, "cannot stat entry", err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		content, err := ReadText(path)
		if err != nil {
			return nil, err
		}

		files = append(files, models.SolutionFile{Name: name, Content: content})
	}

	return files, nil
}

// ReadText reads path and checks that it decodes as UTF-8 text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", models.NewFileSystemError(path, "cannot read file", err)
	}
	if !utf8.Valid(data) {
		return "", models.NewFileSystemError(path, "content is not valid UTF-8 text", nil)
	}
	return string(data), nil
}
