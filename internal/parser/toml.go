package parser

import (
	"io"

	"github.com/BurntSushi/toml"
	"github.com/harrison/grader/internal/models"
)

// TOMLParser parses rules.toml files:
//
//	[[exercise]]
//	name = "add"
//
//	[[exercise.test]]
//	test_name = "basic"
//	input = ["1 2"]
//	output = ["3"]
type TOMLParser struct{}

// NewTOMLParser creates a new TOML parser
func NewTOMLParser() *TOMLParser {
	return &TOMLParser{}
}

// Parse decodes and validates TOML rules
func (p *TOMLParser) Parse(r io.Reader) (*models.Module, error) {
	var raw rawModule
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, models.NewConfigError("", "malformed TOML", err)
	}
	return raw.toModule()
}
