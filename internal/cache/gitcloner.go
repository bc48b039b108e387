package cache

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	gitExecutableName  = "git"
	gitCloneSubcommand = "clone"
	// DefaultCloneTimeout bounds a single clone operation.
	DefaultCloneTimeout = 300 * time.Second
)

// GitCloner clones repositories by shelling out to the git executable.
type GitCloner struct {
	executable string
	timeout    time.Duration
}

// NewGitCloner constructs a GitCloner. An empty executable falls back to
// "git" on PATH; a non-positive timeout falls back to DefaultCloneTimeout.
func NewGitCloner(executable string, timeout time.Duration) *GitCloner {
	if strings.TrimSpace(executable) == "" {
		executable = gitExecutableName
	}
	if timeout <= 0 {
		timeout = DefaultCloneTimeout
	}
	return &GitCloner{executable: executable, timeout: timeout}
}

// Clone runs "git clone <url> <dir>" with the configured timeout. The
// destination directory must exist and be empty; git populates it in place.
func (cloner *GitCloner) Clone(ctx context.Context, sourceURL string, destinationDirectory string) error {
	cloneContext, cancel := context.WithTimeout(ctx, cloner.timeout)
	defer cancel()

	cloneCommand := exec.CommandContext(cloneContext, cloner.executable, gitCloneSubcommand, sourceURL, destinationDirectory)
	var standardErrorBuffer bytes.Buffer
	cloneCommand.Stderr = &standardErrorBuffer

	runError := cloneCommand.Run()
	if cloneContext.Err() == context.DeadlineExceeded {
		return fmt.Errorf("git clone of %s: %w", sourceURL, context.DeadlineExceeded)
	}
	if runError != nil {
		trimmedStandardError := strings.TrimSpace(standardErrorBuffer.String())
		if trimmedStandardError != "" {
			return fmt.Errorf("git clone of %s: %s", sourceURL, trimmedStandardError)
		}
		return fmt.Errorf("git clone of %s: %w", sourceURL, runError)
	}
	return nil
}

var _ Cloner = (*GitCloner)(nil)
