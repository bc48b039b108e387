package giturl_test

import (
	"testing"

	"github.com/repoprompt/repoprompt/internal/giturl"
)

func TestIsRemoteReference(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "github https", input: "https://github.com/spf13/cobra", expected: true},
		{name: "github http", input: "http://github.com/spf13/cobra", expected: true},
		{name: "gitlab https", input: "https://gitlab.com/group/project", expected: true},
		{name: "bitbucket https", input: "https://bitbucket.org/team/project", expected: true},
		{name: "github ssh shorthand", input: "git@github.com:spf13/cobra.git", expected: true},
		{name: "gitlab ssh shorthand", input: "git@gitlab.com:group/project", expected: true},
		{name: "bitbucket ssh shorthand", input: "git@bitbucket.org:team/project", expected: true},
		{name: "dot git suffix on unknown host", input: "https://example.com/some/repo.git", expected: true},
		{name: "bare dot git suffix", input: "repo.git", expected: true},
		{name: "absolute local path", input: "/home/user/project", expected: false},
		{name: "relative local path", input: "./src", expected: false},
		{name: "plain file name", input: "main.go", expected: false},
		{name: "unknown host without suffix", input: "https://example.com/some/repo", expected: false},
		{name: "dot git in the middle", input: "/srv/repo.git-backup/files", expected: false},
		{name: "empty string", input: "", expected: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if actual := giturl.IsRemoteReference(testCase.input); actual != testCase.expected {
				t.Fatalf("IsRemoteReference(%q) = %v, want %v", testCase.input, actual, testCase.expected)
			}
		})
	}
}
