// Package resolve turns a heterogeneous list of inputs into local
// filesystem paths, substituting cached clone directories for remote
// repository references.
package resolve

import "context"

// Classifier decides whether an input denotes a remote repository.
type Classifier func(input string) bool

// RepositoryResolver maps a remote URL to a local directory.
type RepositoryResolver interface {
	Resolve(ctx context.Context, sourceURL string) (string, error)
}

// Resolver resolves mixed input lists while preserving caller order.
type Resolver struct {
	classifier   Classifier
	repositories RepositoryResolver
}

// NewResolver constructs a Resolver from a classifier and a repository
// resolver (typically the cache store).
func NewResolver(classifier Classifier, repositories RepositoryResolver) *Resolver {
	return &Resolver{classifier: classifier, repositories: repositories}
}

// ResolveAll substitutes every remote reference with its local clone
// directory and passes local paths through unchanged, without existence
// checks. The first repository failure aborts the whole batch: a prompt
// silently built from a subset of the requested repositories would mislead
// the caller.
func (resolver *Resolver) ResolveAll(ctx context.Context, inputs []string) ([]string, error) {
	resolvedPaths := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if !resolver.classifier(input) {
			resolvedPaths = append(resolvedPaths, input)
			continue
		}
		localDirectory, resolveError := resolver.repositories.Resolve(ctx, input)
		if resolveError != nil {
			return nil, resolveError
		}
		resolvedPaths = append(resolvedPaths, localDirectory)
	}
	return resolvedPaths, nil
}
