package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("Root command should not be nil")
	}

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Help should not fail, got: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "grader") {
		t.Errorf("Help text should contain 'grader', got: %s", output)
	}
	if !strings.Contains(output, "execution service") {
		t.Errorf("Help text should mention the execution service, got: %s", output)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "grader" {
		t.Errorf("Expected Use to be 'grader', got '%s'", cmd.Use)
	}

	want := map[string]bool{"run": false, "validate": false, "runtimes": false, "history": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected subcommand %q", name)
		}
	}
}

func TestRootCommandConfigFlagIsPersistent(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("Expected a persistent --config flag")
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Version flag should not fail, got: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "version") || !strings.Contains(output, Version) {
		t.Errorf("Version output should contain the version, got: %s", output)
	}
}

func TestRootCommand_ErrorsAreReturnedNotPrinted(t *testing.T) {
	cmd := NewRootCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"no-such-command"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected an error for an unknown command")
	}
	if strings.Contains(buf.String(), "Error:") {
		t.Errorf("Expected no error text on the command output, got: %q", buf.String())
	}
}
