package cli

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterToggleFlagsParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--copy"},
			expected:     true,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--copy=false"},
			expected:     false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--copy", "no"},
			expected:     false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--copy", "on"},
			expected:     true,
		},
		{
			name:         "leaves_positional_path_alone",
			defaultValue: false,
			arguments:    []string{"--copy", "./src"},
			expected:     true,
		},
		{
			name:        "rejects_unknown_literal",
			arguments:   []string{"--copy=maybe"},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "toggle-test"}
			flagValue := !testCase.defaultValue
			registerToggleFlags(command.Flags(), toggleFlagDefinition{
				name:         "copy",
				target:       &flagValue,
				defaultValue: testCase.defaultValue,
				usage:        "copy the summary",
			})
			parseErr := command.ParseFlags(normalizeToggleFlagArguments(command, testCase.arguments))
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestNormalizeToggleFlagArgumentsStopsAtTerminator(t *testing.T) {
	t.Parallel()
	var enabled bool
	command := &cobra.Command{Use: "toggle-test"}
	registerToggleFlags(command.Flags(), toggleFlagDefinition{name: "tokens", target: &enabled})
	child := &cobra.Command{Use: "child"}
	var childEnabled bool
	registerToggleFlags(child.Flags(), toggleFlagDefinition{name: "force", target: &childEnabled})
	command.AddCommand(child)

	arguments := []string{"--tokens", "yes", "--force", "0", "--", "--tokens", "no"}
	expected := []string{"--tokens=yes", "--force=0", "--", "--tokens", "no"}
	normalized := normalizeToggleFlagArguments(command, arguments)
	if !reflect.DeepEqual(normalized, expected) {
		t.Fatalf("expected %v, got %v", expected, normalized)
	}
}
