package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/grader/internal/models"
)

// Format represents the format of a rules file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatTOML represents a TOML (.toml) rules file
	FormatTOML
	// FormatYAML represents a YAML (.yaml, .yml) rules file
	FormatYAML
	// FormatHCL represents an HCL (.hcl) rules file
	FormatHCL
)

// RulesBaseName is the file name (without extension) looked up in an exercise directory.
const RulesBaseName = "rules"

// rulesCandidates lists rules file names in lookup order.
var rulesCandidates = []string{"rules.toml", "rules.yaml", "rules.yml", "rules.hcl"}

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	default:
		return "unknown"
	}
}

// Parser is the interface that all rules parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns a fully validated Module
	Parse(r io.Reader) (*models.Module, error)
}

// DetectFormat detects the rules format based on file extension
// Supported extensions:
//   - .toml -> FormatTOML
//   - .yaml, .yml -> FormatYAML
//   - .hcl -> FormatHCL
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatTOML:
		return NewTOMLParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	case FormatHCL:
		return NewHCLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// Parse decodes rules in the given format. Parsing is all-or-nothing:
// on error the returned Module is always nil.
func Parse(r io.Reader, format Format) (*models.Module, error) {
	p, err := NewParser(format)
	if err != nil {
		return nil, models.NewConfigError("", err.Error(), nil)
	}
	return p.Parse(r)
}

// ParseFile detects the format from the extension, parses the file and
// records its absolute path in Module.FilePath.
func ParseFile(path string) (*models.Module, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, &models.ConfigError{
			Path:    path,
			Message: "unknown file format (supported: .toml, .yaml, .yml, .hcl)",
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, models.NewFileSystemError(path, "cannot open rules file", err)
	}
	defer file.Close()

	module, err := Parse(file, format)
	if err != nil {
		var cfgErr *models.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Path == "" {
			cfgErr.Path = path
		}
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	module.FilePath = absPath

	return module, nil
}

// FindRules returns the path of the rules file inside dir.
// rules.toml wins over the other formats when several exist.
func FindRules(dir string) (string, error) {
	for _, name := range rulesCandidates {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", models.NewFileSystemError(candidate, "cannot access rules file", err)
		}
	}
	return "", models.NewFileSystemError(dir, fmt.Sprintf("no rules file found (looked for %s)", strings.Join(rulesCandidates, ", ")), nil)
}

// IsRulesFile reports whether name is one of the recognised rules file names.
func IsRulesFile(name string) bool {
	for _, candidate := range rulesCandidates {
		if name == candidate {
			return true
		}
	}
	return false
}
