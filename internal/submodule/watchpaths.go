package submodule

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WatchPaths returns the files whose changes move the pinned state:
// .gitmodules and the HEAD of the submodule repository.
func (s *Store) WatchPaths() ([]string, error) {
	gitDir, err := s.gitDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(s.root, gitmodulesFile),
		filepath.Join(gitDir, "HEAD"),
	}, nil
}

// gitDir resolves the checkout's .git, following a "gitdir:" file.
func (s *Store) gitDir() (string, error) {
	dotGit := filepath.Join(s.Dir(), ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("submodule checkout missing: %w", err)
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("unexpected content in %s", dotGit)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.Dir(), target)
	}
	return filepath.Clean(target), nil
}
