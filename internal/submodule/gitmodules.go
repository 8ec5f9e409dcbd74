package submodule

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/config"
)

const gitmodulesFile = ".gitmodules"

// modulesFile is a parsed .gitmodules together with its raw bytes.
type modulesFile struct {
	path    string
	raw     []byte
	modules *config.Modules
}

func readModules(root string) (*modulesFile, error) {
	path := filepath.Join(root, gitmodulesFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", gitmodulesFile, err)
	}
	m := config.NewModules()
	if err := m.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", gitmodulesFile, err)
	}
	return &modulesFile{path: path, raw: raw, modules: m}, nil
}

func (f *modulesFile) submodule(name string) (*config.Submodule, bool) {
	sm, ok := f.modules.Submodules[name]
	return sm, ok
}

func (f *modulesFile) write() error {
	data, err := f.modules.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", gitmodulesFile, err)
	}
	return os.WriteFile(f.path, data, 0o644) //nolint:gosec // .gitmodules is a tracked, world-readable file
}

// restore puts the bytes read by readModules back.
func (f *modulesFile) restore() error {
	return os.WriteFile(f.path, f.raw, 0o644) //nolint:gosec // .gitmodules is a tracked, world-readable file
}
