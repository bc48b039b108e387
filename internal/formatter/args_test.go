package formatter_test

import (
	"reflect"
	"testing"

	"github.com/repoprompt/repoprompt/internal/formatter"
	"github.com/repoprompt/repoprompt/internal/types"
)

func TestBuildArguments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		paths    []string
		options  formatter.Options
		expected []string
	}{
		{
			name:     "paths only with default options",
			paths:    []string{"/repo/a", "./b"},
			options:  formatter.Options{Format: types.FormatDefault},
			expected: []string{"/repo/a", "./b"},
		},
		{
			name:  "extensions hidden and markdown keep fixed order",
			paths: []string{"/repo"},
			options: formatter.Options{
				Extensions:    []string{"py", "md"},
				IncludeHidden: true,
				Format:        types.FormatMarkdown,
			},
			expected: []string{"/repo", "-e", "py", "-e", "md", "--include-hidden", "--markdown"},
		},
		{
			name:  "every option set",
			paths: []string{"/repo"},
			options: formatter.Options{
				Extensions:      []string{"go"},
				IncludeHidden:   true,
				IgnorePatterns:  []string{"*.min.js", "vendor/*"},
				IgnoreFilesOnly: true,
				IgnoreGitignore: true,
				Format:          types.FormatCXML,
				LineNumbers:     true,
				OutputFile:      "/tmp/out.txt",
			},
			expected: []string{
				"/repo",
				"-e", "go",
				"--include-hidden",
				"--ignore", "*.min.js",
				"--ignore", "vendor/*",
				"--ignore-files-only",
				"--ignore-gitignore",
				"--cxml",
				"--line-numbers",
				"-o", "/tmp/out.txt",
			},
		},
		{
			name:     "default format emits no format flag",
			paths:    []string{"."},
			options:  formatter.Options{Format: types.FormatDefault, LineNumbers: true},
			expected: []string{".", "--line-numbers"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual := formatter.BuildArguments(testCase.paths, testCase.options)
			if !reflect.DeepEqual(actual, testCase.expected) {
				t.Fatalf("BuildArguments = %v, want %v", actual, testCase.expected)
			}
		})
	}
}

func TestOptionsNormalized(t *testing.T) {
	t.Parallel()

	options := formatter.Options{
		Extensions:     []string{" py ", "", "md"},
		IgnorePatterns: []string{"", "  "},
		Format:         "",
		OutputFile:     "  ",
	}
	normalized := options.Normalized()

	if !reflect.DeepEqual(normalized.Extensions, []string{"py", "md"}) {
		t.Fatalf("normalized extensions = %v", normalized.Extensions)
	}
	if normalized.IgnorePatterns != nil {
		t.Fatalf("expected blank-only patterns to normalize to unset, got %v", normalized.IgnorePatterns)
	}
	if normalized.Format != types.FormatDefault {
		t.Fatalf("expected empty format to default, got %q", normalized.Format)
	}
	if normalized.OutputFile != "" {
		t.Fatalf("expected blank output file to normalize to unset, got %q", normalized.OutputFile)
	}
}

func TestOptionsValidateRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	options := formatter.Options{Format: "yaml"}
	validationError := options.Validate()
	if validationError == nil {
		t.Fatalf("expected validation failure for unknown format")
	}
	failureKind, classified := types.FailureKindOf(validationError)
	if !classified || failureKind != types.FailureInvalidInput {
		t.Fatalf("expected %s classification, got %v", types.FailureInvalidInput, failureKind)
	}
}
