// Package gitsource keeps a local checkout of a remote documentation
// repository in sync so scans can run against it.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdincl/internal/config"
	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// DefaultDir is the checkout location used when the configuration leaves
// repository.dir empty.
const DefaultDir = ".mdincl/checkout"

// Source syncs one repository into a local working directory.
type Source struct {
	repo config.Repository
}

// New returns a source for the configured repository, filling in the default
// checkout directory when none is set.
func New(repo config.Repository) *Source {
	if repo.Dir == "" {
		repo.Dir = DefaultDir
	}
	return &Source{repo: repo}
}

// Dir returns the checkout directory.
func (s *Source) Dir() string { return s.repo.Dir }

// Root returns the documentation root inside the checkout.
func (s *Source) Root() string {
	if s.repo.Path == "" {
		return s.repo.Dir
	}
	return filepath.Join(s.repo.Dir, s.repo.Path)
}

// Sync clones the repository on first use and fast-forwards the existing
// checkout afterwards. It returns the documentation root to scan.
func (s *Source) Sync(ctx context.Context) (string, error) {
	if _, err := os.Stat(filepath.Join(s.repo.Dir, ".git")); err != nil {
		if err := s.clone(ctx); err != nil {
			return "", err
		}
		return s.Root(), nil
	}
	if err := s.update(ctx); err != nil {
		return "", err
	}
	return s.Root(), nil
}

func (s *Source) clone(ctx context.Context) error {
	slog.Debug("Cloning repository", logfields.Repository(s.repo.URL), logfields.Path(s.repo.Dir))

	if err := os.MkdirAll(filepath.Dir(s.repo.Dir), 0o750); err != nil {
		return fmt.Errorf("create checkout parent: %w", err)
	}

	opts := &git.CloneOptions{
		URL:   s.repo.URL,
		Auth:  s.auth(),
		Tags:  git.NoTags,
		Depth: s.repo.Depth,
	}
	if s.repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.repo.Branch)
		opts.SingleBranch = true
	}

	repository, err := git.PlainCloneContext(ctx, s.repo.Dir, false, opts)
	if err != nil {
		return fmt.Errorf("clone %s: %w", s.repo.URL, err)
	}

	if ref, err := repository.Head(); err == nil {
		slog.Info("Repository cloned",
			logfields.Repository(s.repo.URL),
			slog.String("commit", shortHash(ref.Hash())),
			logfields.Path(s.repo.Dir))
	}
	return nil
}

func (s *Source) update(ctx context.Context) error {
	repository, err := git.PlainOpen(s.repo.Dir)
	if err != nil {
		return fmt.Errorf("open checkout: %w", err)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	opts := &git.PullOptions{
		RemoteName: "origin",
		Auth:       s.auth(),
	}
	if s.repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.repo.Branch)
		opts.SingleBranch = true
	}

	err = wt.PullContext(ctx, opts)
	switch {
	case err == nil:
		if ref, herr := repository.Head(); herr == nil {
			slog.Info("Repository updated", logfields.Repository(s.repo.URL), slog.String("commit", shortHash(ref.Hash())))
		}
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Debug("Repository already up to date", logfields.Repository(s.repo.URL))
		return nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		// The checkout is ours alone, so a diverged local branch only means
		// something scribbled on it. Reset to the remote.
		return s.resetToRemote(ctx, repository, wt)
	default:
		return fmt.Errorf("pull %s: %w", s.repo.URL, err)
	}
}

// resetToRemote fetches origin and hard-resets the worktree onto the remote
// branch head.
func (s *Source) resetToRemote(ctx context.Context, repository *git.Repository, wt *git.Worktree) error {
	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       s.auth(),
		Tags:       git.NoTags,
	}
	if err := repository.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}

	branch, err := s.targetBranch(repository)
	if err != nil {
		return err
	}
	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("remote ref %s: %w", branch, err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset to origin/%s: %w", branch, err)
	}

	slog.Warn("Checkout had diverged, reset to remote",
		logfields.Repository(s.repo.URL),
		slog.String("branch", branch),
		slog.String("commit", shortHash(remoteRef.Hash())))
	return nil
}

// targetBranch resolves the branch to track: the configured one, else the
// current HEAD branch, else main.
func (s *Source) targetBranch(repository *git.Repository) (string, error) {
	if s.repo.Branch != "" {
		return s.repo.Branch, nil
	}
	if ref, err := repository.Head(); err == nil && ref.Name().IsBranch() {
		return ref.Name().Short(), nil
	}
	return "main", nil
}

func (s *Source) auth() transport.AuthMethod {
	if s.repo.Token == "" {
		return nil
	}
	// Forges accept any username when a token is the password.
	return &http.BasicAuth{Username: "token", Password: s.repo.Token}
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}
