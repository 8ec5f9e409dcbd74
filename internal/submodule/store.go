package submodule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// Options configures a Store.
type Options struct {
	Root      string // superproject worktree
	Name      string // submodule name in .gitmodules
	Path      string // checkout path relative to Root
	Depth     int
	TagPrefix string
}

// Store is the Submodule Source Store.
type Store struct {
	root      string
	name      string
	path      string
	depth     int
	tagPrefix string
}

// New returns a Store for the submodule described by opts.
func New(opts Options) *Store {
	prefix := opts.TagPrefix
	if prefix == "" {
		prefix = "version-"
	}
	return &Store{
		root:      opts.Root,
		name:      opts.Name,
		path:      opts.Path,
		depth:     opts.Depth,
		tagPrefix: prefix,
	}
}

// Checkout describes the state of the submodule on disk.
type Checkout struct {
	Name    string
	Path    string // absolute
	URL     string
	Branch  string // pinned reference, e.g. tags/version-3.46.0
	Present bool
	Commit  string // HEAD of the checkout, empty when absent
}

// Version returns the pinned tag name without the tags/ qualifier.
func (c *Checkout) Version() string {
	return strings.TrimPrefix(c.Branch, branchPrefix)
}

// Dir returns the absolute checkout directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, s.path)
}

// Present reports whether the checkout directory holds a Git worktree.
func (s *Store) Present() bool {
	if _, err := os.Stat(filepath.Join(s.Dir(), ".git")); err != nil {
		return false
	}
	_, err := git.PlainOpen(s.Dir())
	return err == nil
}

// Checkout reports the submodule configuration and on-disk state.
func (s *Store) Checkout(_ context.Context) (*Checkout, error) {
	mf, err := readModules(s.root)
	if err != nil {
		return nil, foundationerrors.ConfigError("cannot read submodule configuration").WithCause(err).Build()
	}
	sm, ok := mf.submodule(s.name)
	if !ok {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("submodule %q is not declared in %s", s.name, gitmodulesFile)).Build()
	}

	co := &Checkout{
		Name:   s.name,
		Path:   s.Dir(),
		URL:    s.resolveURL(sm.URL),
		Branch: sm.Branch,
	}
	if !s.Present() {
		return co, nil
	}
	co.Present = true

	repo, err := git.PlainOpen(s.Dir())
	if err != nil {
		return nil, foundationerrors.FileSystemError("cannot open submodule checkout").WithCause(err).Build()
	}
	if head, err := repo.Head(); err == nil {
		co.Commit = head.Hash().String()
	}
	return co, nil
}

// EnsurePresent initializes and updates the submodule when its worktree is
// missing. It does nothing when the checkout is already present.
func (s *Store) EnsurePresent(ctx context.Context) (*Checkout, error) {
	if s.Present() {
		slog.Debug("Submodule already present", logfields.Submodule(s.name), logfields.Path(s.Dir()))
		return s.Checkout(ctx)
	}

	repo, err := git.PlainOpen(s.root)
	if err != nil {
		return nil, foundationerrors.MissingPrerequisiteError("superproject is not a git repository").
			WithCause(err).
			WithContext("root", s.root).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, foundationerrors.FileSystemError("superproject worktree").WithCause(err).Build()
	}
	sub, err := wt.Submodule(s.name)
	if err != nil {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("submodule %q not found", s.name)).WithCause(err).Build()
	}

	slog.Info("Initializing submodule",
		logfields.Submodule(s.name),
		logfields.URL(sub.Config().URL),
		logfields.Path(s.Dir()))

	err = sub.UpdateContext(ctx, &git.SubmoduleUpdateOptions{Init: true, Depth: s.depth})
	if err != nil && !errors.Is(err, git.ErrSubmoduleAlreadyInitialized) {
		return nil, foundationerrors.FetchError("submodule update failed").
			WithCause(err).
			WithContext("submodule", s.name).
			WithContext("url", sub.Config().URL).
			Build()
	}
	return s.Checkout(ctx)
}

// upstreamURL returns the URL declared for the submodule in .gitmodules.
func (s *Store) upstreamURL() (string, error) {
	mf, err := readModules(s.root)
	if err != nil {
		return "", foundationerrors.ConfigError("cannot read submodule configuration").WithCause(err).Build()
	}
	sm, ok := mf.submodule(s.name)
	if !ok {
		return "", foundationerrors.ConfigError(fmt.Sprintf("submodule %q is not declared in %s", s.name, gitmodulesFile)).Build()
	}
	return s.resolveURL(sm.URL), nil
}

// resolveURL anchors ./ and ../ URLs at the superproject root.
func (s *Store) resolveURL(url string) string {
	if strings.HasPrefix(url, "./") || strings.HasPrefix(url, "../") {
		return filepath.Join(s.root, url)
	}
	return url
}
