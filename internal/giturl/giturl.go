// Package giturl classifies input strings as remote repository references
// or local filesystem paths. Classification is purely lexical: it never
// consults the filesystem or the network.
package giturl

import "regexp"

// knownRemotePatterns lists the recognized remote reference shapes: HTTP(S)
// URLs on the supported hosting domains, SSH shorthand for the same hosts,
// and any string carrying the literal .git suffix.
var knownRemotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://github\.com/`),
	regexp.MustCompile(`^https?://gitlab\.com/`),
	regexp.MustCompile(`^https?://bitbucket\.org/`),
	regexp.MustCompile(`^git@github\.com:`),
	regexp.MustCompile(`^git@gitlab\.com:`),
	regexp.MustCompile(`^git@bitbucket\.org:`),
	regexp.MustCompile(`\.git$`),
}

// IsRemoteReference reports whether the input denotes a remote repository.
// A false result means the input is treated as a local path downstream.
func IsRemoteReference(input string) bool {
	for _, remotePattern := range knownRemotePatterns {
		if remotePattern.MatchString(input) {
			return true
		}
	}
	return false
}
