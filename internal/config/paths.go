package config

import "path/filepath"

// Paths holds the absolute locations derived from a Config and the superproject root.
type Paths struct {
	Root    string
	Source  string // submodule checkout
	Build   string // scratch build directory (configure + make output)
	Cache   string // build cache (objects, static library)
	Publish string
	State   string
}

// Resolve anchors the configured relative paths at root.
func (c *Config) Resolve(root string) (Paths, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		Root:    abs,
		Source:  filepath.Join(abs, c.Submodule.Path),
		Build:   filepath.Join(abs, c.Build.Directory),
		Cache:   filepath.Join(abs, c.Build.CacheDirectory),
		Publish: filepath.Join(abs, c.Publish.Directory),
		State:   filepath.Join(abs, c.State.Directory),
	}, nil
}
