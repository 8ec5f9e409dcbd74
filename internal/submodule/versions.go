package submodule

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/mod/semver"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
)

// branchPrefix qualifies the tag name stored as the submodule branch.
const branchPrefix = "tags/"

var versionNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// Version is an upstream release tag.
type Version struct {
	Tag    string // e.g. version-3.46.0
	Number string // e.g. 3.46.0
	Commit string // object the tag ref points at
}

// Branch returns the submodule branch value for the tag.
func (v Version) Branch() string {
	return branchPrefix + v.Tag
}

// NormalizeVersion accepts "3.46.0", "version-3.46.0", "tags/version-3.46.0"
// or "refs/tags/version-3.46.0" and returns the bare tag name.
func NormalizeVersion(tagPrefix, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "refs/")
	v = strings.TrimPrefix(v, branchPrefix)
	v = strings.TrimPrefix(v, tagPrefix)
	if !versionNumber.MatchString(v) {
		return "", foundationerrors.ValidationError(fmt.Sprintf("invalid version %q", raw)).
			WithContext("expected", tagPrefix+"<N>").
			Build()
	}
	return tagPrefix + v, nil
}

// listTags lists the tag references advertised by url without cloning.
func listTags(ctx context.Context, url string) (map[string]plumbing.Hash, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		// An empty repository advertises nothing.
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return map[string]plumbing.Hash{}, nil
		}
		return nil, foundationerrors.FetchError("failed to list remote references").
			WithCause(err).
			WithContext("url", url).
			Build()
	}

	tags := make(map[string]plumbing.Hash, len(refs))
	for _, ref := range refs {
		if ref.Type() == plumbing.SymbolicReference || !ref.Name().IsTag() {
			continue
		}
		name := ref.Name().Short()
		if strings.HasSuffix(name, "^{}") {
			continue
		}
		tags[name] = ref.Hash()
	}
	return tags, nil
}

// ListVersions returns the upstream release tags, oldest first.
func (s *Store) ListVersions(ctx context.Context) ([]Version, error) {
	url, err := s.upstreamURL()
	if err != nil {
		return nil, err
	}
	tags, err := listTags(ctx, url)
	if err != nil {
		return nil, err
	}

	versions := make([]Version, 0, len(tags))
	for tag, hash := range tags {
		number, ok := strings.CutPrefix(tag, s.tagPrefix)
		if !ok || !versionNumber.MatchString(number) {
			continue
		}
		versions = append(versions, Version{Tag: tag, Number: number, Commit: hash.String()})
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareNumbers(versions[i].Number, versions[j].Number) < 0
	})
	return versions, nil
}

// compareNumbers orders dotted version numbers. The first three components
// compare as semver; SQLite's four-part releases (3.8.11.1) break ties on the
// fourth.
func compareNumbers(a, b string) int {
	if c := semver.Compare(semverOf(a), semverOf(b)); c != 0 {
		return c
	}
	return cmp.Compare(component(a, 3), component(b, 3))
}

func semverOf(number string) string {
	parts := strings.Split(number, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i, p := range parts {
		parts[i] = strconv.Itoa(component(p, 0))
	}
	return "v" + strings.Join(parts, ".")
}

// component returns the i-th dotted component of number, or 0 when absent.
func component(number string, i int) int {
	parts := strings.Split(number, ".")
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	return n
}
