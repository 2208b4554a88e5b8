// Package sync pushes the export directory to a git remote.
package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GitManager handles git operations on the export repository.
type GitManager struct {
	RepoPath string
}

// NewGitManager creates a new GitManager
func NewGitManager(repoPath string) *GitManager {
	return &GitManager{RepoPath: repoPath}
}

// Sync commits all changes and pushes to the remote. Pushing tries the
// default SSH key first and falls back to an unauthenticated push, which
// covers https remotes with a credential helper.
func (g *GitManager) Sync(message string) error {
	r, err := git.PlainOpen(g.RepoPath)
	if err != nil {
		return fmt.Errorf("failed to open repo: %w", err)
	}

	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if _, err := w.Add("."); err != nil {
		return fmt.Errorf("failed to add changes: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("Auto-sync: %s", time.Now().Format(time.RFC3339))
	}

	_, err = w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Thoughtflow",
			Email: "thoughtflow@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	home, _ := os.UserHomeDir()
	sshKeyPath := filepath.Join(home, ".ssh", "id_rsa")

	publicKeys, keyErr := ssh.NewPublicKeysFromFile("git", sshKeyPath, "")
	if keyErr != nil {
		err = r.Push(&git.PushOptions{})
	} else {
		err = r.Push(&git.PushOptions{Auth: publicKeys})
	}
	if err != nil {
		if err == git.NoErrAlreadyUpToDate {
			return nil
		}
		return fmt.Errorf("failed to push: %w", err)
	}

	return nil
}
