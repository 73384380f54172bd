package main

import (
	git "github.com/go-git/go-git/v5"
)

// projectRootHint returns the enclosing repository's worktree root, or ""
// when the working directory is not inside a git repository. Used to point
// the user at the right directory after a failed root check.
func projectRootHint() string {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}

// headShortSHA returns the abbreviated HEAD commit hash, or "" when there
// is no repository or no commit yet.
func headShortSHA() string {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()[:8]
}
