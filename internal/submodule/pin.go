package submodule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// Pin repoints the submodule at the given release and checks it out.
//
// The tag is verified upstream before anything is modified. Once
// .gitmodules has been edited, any later failure restores .gitmodules and
// the superproject's submodule configuration.
func (s *Store) Pin(ctx context.Context, version string) (*Checkout, error) {
	tag, err := NormalizeVersion(s.tagPrefix, version)
	if err != nil {
		return nil, err
	}
	if !s.Present() {
		return nil, foundationerrors.MissingPrerequisiteError("submodule checkout is missing, run prepare first").
			WithContext("path", s.Dir()).
			Build()
	}

	mf, err := readModules(s.root)
	if err != nil {
		return nil, foundationerrors.ConfigError("cannot read submodule configuration").WithCause(err).Build()
	}
	sm, ok := mf.submodule(s.name)
	if !ok {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("submodule %q is not declared in %s", s.name, gitmodulesFile)).Build()
	}
	url := s.resolveURL(sm.URL)

	tags, err := listTags(ctx, url)
	if err != nil {
		return nil, err
	}
	if _, ok := tags[tag]; !ok {
		return nil, foundationerrors.PinError(fmt.Sprintf("tag %s does not exist upstream", tag)).
			WithContext("url", url).
			WithContext(logfields.KeyRef, plumbing.NewTagReferenceName(tag).String()).
			Build()
	}

	superRepo, err := git.PlainOpen(s.root)
	if err != nil {
		return nil, foundationerrors.MissingPrerequisiteError("superproject is not a git repository").WithCause(err).Build()
	}
	saved, err := snapshotSuperConfig(superRepo, s.name)
	if err != nil {
		return nil, foundationerrors.FileSystemError("cannot read superproject configuration").WithCause(err).Build()
	}

	branch := branchPrefix + tag
	slog.Info("Pinning submodule",
		logfields.Submodule(s.name),
		logfields.Version(tag),
		logfields.Ref(plumbing.NewTagReferenceName(tag).String()),
		logfields.URL(url))

	commit, err := s.applyPin(ctx, mf, superRepo, sm, branch, tag, url)
	if err != nil {
		if rerr := mf.restore(); rerr != nil {
			slog.Error("Failed to restore .gitmodules", logfields.Error(rerr))
		}
		if rerr := saved.restore(superRepo); rerr != nil {
			slog.Error("Failed to restore submodule configuration", logfields.Error(rerr))
		}
		return nil, err
	}

	slog.Info("Submodule pinned", logfields.Version(tag), logfields.Commit(commit.String()))
	return s.Checkout(ctx)
}

func (s *Store) applyPin(ctx context.Context, mf *modulesFile, superRepo *git.Repository, sm *config.Submodule, branch, tag, url string) (plumbing.Hash, error) {
	// 1. record the pinned reference
	sm.Branch = branch
	if err := mf.write(); err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("cannot update .gitmodules").WithCause(err).Build()
	}

	// 2. sync the superproject's view of the submodule
	if err := syncSuperConfig(superRepo, sm.Name, url); err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("cannot sync submodule configuration").WithCause(err).Build()
	}

	// 3. fetch the tag and check it out
	subRepo, err := git.PlainOpen(s.Dir())
	if err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("cannot open submodule checkout").WithCause(err).Build()
	}
	origin, err := snapshotOrigin(subRepo)
	if err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("cannot read submodule configuration").WithCause(err).Build()
	}
	if err := setOriginURL(subRepo, url); err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("cannot update submodule remote").WithCause(err).Build()
	}
	commit, err := s.fetchAndCheckout(ctx, subRepo, tag, url)
	if err != nil {
		if rerr := origin.restore(subRepo); rerr != nil {
			slog.Error("Failed to restore submodule remote", logfields.Error(rerr))
		}
		return plumbing.ZeroHash, err
	}
	return commit, nil
}

func (s *Store) fetchAndCheckout(ctx context.Context, repo *git.Repository, tag, url string) (plumbing.Hash, error) {
	ref := plumbing.NewTagReferenceName(tag)
	spec := config.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{spec},
		Tags:       git.NoTags,
		Depth:      s.depth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, foundationerrors.FetchError("fetch of pinned tag failed").
			WithCause(err).
			WithContext("url", url).
			WithContext(logfields.KeyRef, ref.String()).
			Build()
	}

	commit, err := peelTag(repo, ref)
	if err != nil {
		return plumbing.ZeroHash, foundationerrors.PinError("cannot resolve pinned tag").WithCause(err).WithContext(logfields.KeyRef, ref.String()).Build()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, foundationerrors.FileSystemError("submodule worktree").WithCause(err).Build()
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: commit, Force: true}); err != nil {
		return plumbing.ZeroHash, foundationerrors.PinError("checkout of pinned tag failed").WithCause(err).WithContext("commit", commit.String()).Build()
	}
	return commit, nil
}

// peelTag resolves a lightweight or annotated tag to its commit.
func peelTag(repo *git.Repository, ref plumbing.ReferenceName) (plumbing.Hash, error) {
	r, err := repo.Reference(ref, true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tagObj, err := repo.TagObject(r.Hash())
	switch {
	case err == nil:
		c, cerr := tagObj.Commit()
		if cerr != nil {
			return plumbing.ZeroHash, cerr
		}
		return c.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return r.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}

// superConfig is the saved submodule entry of the superproject's .git/config.
type superConfig struct {
	name    string
	entry   *config.Submodule
	present bool
}

func snapshotSuperConfig(repo *git.Repository, name string) (*superConfig, error) {
	cfg, err := repo.Config()
	if err != nil {
		return nil, err
	}
	sc := &superConfig{name: name}
	if e, ok := cfg.Submodules[name]; ok {
		c := *e
		sc.entry, sc.present = &c, true
	}
	return sc, nil
}

func (sc *superConfig) restore(repo *git.Repository) error {
	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	if sc.present {
		c := *sc.entry
		cfg.Submodules[sc.name] = &c
	} else {
		delete(cfg.Submodules, sc.name)
	}
	return repo.Storer.SetConfig(cfg)
}

// syncSuperConfig writes the resolved submodule URL into an initialized
// submodule entry of the superproject configuration.
func syncSuperConfig(repo *git.Repository, name, url string) error {
	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	entry, ok := cfg.Submodules[name]
	if !ok {
		return nil
	}
	if entry.URL == url {
		return nil
	}
	entry.URL = url
	return repo.Storer.SetConfig(cfg)
}

// originSnapshot is the saved origin remote of the submodule repository.
type originSnapshot struct {
	urls    []string
	present bool
}

func snapshotOrigin(repo *git.Repository) (*originSnapshot, error) {
	cfg, err := repo.Config()
	if err != nil {
		return nil, err
	}
	snap := &originSnapshot{}
	if origin, ok := cfg.Remotes[git.DefaultRemoteName]; ok {
		snap.urls = append([]string(nil), origin.URLs...)
		snap.present = true
	}
	return snap, nil
}

func (o *originSnapshot) restore(repo *git.Repository) error {
	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	if !o.present {
		delete(cfg.Remotes, git.DefaultRemoteName)
	} else if origin, ok := cfg.Remotes[git.DefaultRemoteName]; ok {
		origin.URLs = append([]string(nil), o.urls...)
	} else {
		cfg.Remotes[git.DefaultRemoteName] = &config.RemoteConfig{Name: git.DefaultRemoteName, URLs: append([]string(nil), o.urls...)}
	}
	return repo.Storer.SetConfig(cfg)
}

func setOriginURL(repo *git.Repository, url string) error {
	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	origin, ok := cfg.Remotes[git.DefaultRemoteName]
	if !ok {
		cfg.Remotes[git.DefaultRemoteName] = &config.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{url}}
	} else {
		if len(origin.URLs) == 1 && origin.URLs[0] == url {
			return nil
		}
		origin.URLs = []string{url}
	}
	return repo.Storer.SetConfig(cfg)
}
