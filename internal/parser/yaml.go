package parser

import (
	"errors"
	"io"

	"github.com/harrison/grader/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLParser parses rules written as YAML with the same keys as rules.toml.
type YAMLParser struct{}

// NewYAMLParser creates a new YAML parser
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse decodes and validates YAML rules
func (p *YAMLParser) Parse(r io.Reader) (*models.Module, error) {
	var raw rawModule
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.NewConfigError("exercise", "is required", nil)
		}
		return nil, models.NewConfigError("", "malformed YAML", err)
	}
	return raw.toModule()
}
