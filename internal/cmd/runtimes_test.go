package cmd

import (
	"strings"
	"testing"

	"github.com/harrison/grader/internal/models"
	"github.com/harrison/grader/internal/testhelpers"
)

func TestRuntimesCommand_ListsCatalog(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()

	output, err := executeCommand(t, "runtimes", "--api-url", fake.BaseURL())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(output, "python") || !strings.Contains(output, "3.10.0") {
		t.Errorf("Expected python runtime, got: %s", output)
	}
	if !strings.Contains(output, "[golang]") {
		t.Errorf("Expected aliases to be shown, got: %s", output)
	}
	if !strings.Contains(output, "2 runtime(s)") {
		t.Errorf("Expected runtime count, got: %s", output)
	}
}

func TestRuntimesCommand_MarksSelected(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	fake.Runtimes = []models.Runtime{
		{Language: "python", Version: "2.7.18"},
		{Language: "go", Version: "1.16.2"},
		{Language: "python", Version: "3.10.0"},
	}

	output, err := executeCommand(t, "runtimes", "python", "--api-url", fake.BaseURL())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 python entries, got: %q", lines)
	}
	if !strings.Contains(lines[0], "2.7.18") || !strings.HasSuffix(lines[0], "(selected)") {
		t.Errorf("Expected the first python entry to be selected, got: %q", lines[0])
	}
	if strings.Contains(lines[1], "(selected)") {
		t.Errorf("Expected only one selected entry, got: %q", lines[1])
	}
}

func TestRuntimesCommand_UnknownLanguage(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()

	_, err := executeCommand(t, "runtimes", "Python", "--api-url", fake.BaseURL())
	if !models.IsRuntimeNotFoundError(err) {
		t.Errorf("Expected RuntimeNotFoundError for a case mismatch, got: %v", err)
	}
}

func TestRuntimesCommand_CatalogUnavailable(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	fake.RuntimesStatus = 503

	_, err := executeCommand(t, "runtimes", "--api-url", fake.BaseURL())
	if err == nil || !models.IsTransportError(err) {
		t.Errorf("Expected a transport error, got: %v", err)
	}
}
