package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/observability"
)

const ManifestFile = "manifest.yaml"

// Manifest describes a published package.
type Manifest struct {
	Package      string    `yaml:"package"`
	Version      string    `yaml:"version"`
	Commit       string    `yaml:"commit"`
	SourceSHA256 string    `yaml:"source_sha256"`
	HeaderSHA256 string    `yaml:"header_sha256"`
	Defines      []string  `yaml:"defines"`
	PublishedAt  time.Time `yaml:"published_at"`
}

// Publisher is the Artifact Publisher.
type Publisher struct {
	dir     string
	pkg     string
	defines []compileopts.Define
}

// NewPublisher returns a Publisher writing package pkg into dir.
func NewPublisher(dir, pkg string, defines []compileopts.Define) *Publisher {
	return &Publisher{dir: dir, pkg: pkg, defines: defines}
}

// Dir returns the publish directory.
func (p *Publisher) Dir() string { return p.dir }

// Publish copies the artifact into the publish directory and writes the shim
// and manifest. The C sources are copied byte for byte.
func (p *Publisher) Publish(ctx context.Context, artifact *amalgamation.Artifact) (*Manifest, error) {
	if artifact == nil {
		return nil, foundationerrors.MissingPrerequisiteError("no amalgamation to publish").Build()
	}
	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return nil, foundationerrors.FileSystemError("cannot create publish directory").WithCause(err).Build()
	}

	files := []struct {
		src, want string
	}{
		{artifact.Source, artifact.SourceSHA256},
		{artifact.Header, artifact.HeaderSHA256},
	}
	// Stage every copy and verify it before any published file is replaced.
	staged := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()
	digests := make([]string, len(files))
	for i, f := range files {
		tmp, sum, err := stageFile(f.src, p.dir)
		if err != nil {
			return nil, foundationerrors.FileSystemError("cannot copy artifact").
				WithCause(err).
				WithContext("path", f.src).
				Build()
		}
		staged = append(staged, tmp)
		if f.want != "" && sum != f.want {
			return nil, foundationerrors.BuildError("artifact changed since it was built, rebuild before publishing").
				WithContext("path", f.src).
				WithContext("expected", f.want).
				WithContext("actual", sum).
				Build()
		}
		digests[i] = sum
	}
	for i, f := range files {
		dst := filepath.Join(p.dir, filepath.Base(f.src))
		if err := os.Rename(staged[i], dst); err != nil {
			return nil, foundationerrors.FileSystemError("cannot install artifact").
				WithCause(err).
				WithContext("path", dst).
				Build()
		}
	}
	staged = staged[:0]

	src, err := renderShim(shimData{
		Package: p.pkg,
		Version: artifact.Version,
		Commit:  artifact.Commit,
		Defines: p.defines,
	})
	if err != nil {
		return nil, foundationerrors.InternalError("cannot generate cgo shim").WithCause(err).Build()
	}
	if err := os.WriteFile(filepath.Join(p.dir, shimFile), src, 0o644); err != nil { //nolint:gosec // published sources are world-readable
		return nil, foundationerrors.FileSystemError("cannot write cgo shim").WithCause(err).Build()
	}

	manifest := &Manifest{
		Package:      p.pkg,
		Version:      artifact.Version,
		Commit:       artifact.Commit,
		SourceSHA256: digests[0],
		HeaderSHA256: digests[1],
		Defines:      make([]string, 0, len(p.defines)),
		PublishedAt:  time.Now().UTC(),
	}
	for _, d := range p.defines {
		manifest.Defines = append(manifest.Defines, d.String())
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, foundationerrors.InternalError("cannot encode manifest").WithCause(err).Build()
	}
	if err := os.WriteFile(filepath.Join(p.dir, ManifestFile), data, 0o644); err != nil { //nolint:gosec // published sources are world-readable
		return nil, foundationerrors.FileSystemError("cannot write manifest").WithCause(err).Build()
	}

	observability.InfoContext(ctx, "Published amalgamation",
		logfields.Path(p.dir),
		logfields.Version(manifest.Version),
		logfields.Digest(manifest.SourceSHA256))
	return manifest, nil
}

// ReadManifest loads the manifest of a published package.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// stageFile copies src into a temporary file in dir and returns its path and
// the hex SHA-256 of the copied bytes.
func stageFile(src, dir string) (string, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = in.Close() }()

	out, err := os.CreateTemp(dir, "."+filepath.Base(src)+"-*")
	if err != nil {
		return "", "", err
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", "", err
	}
	if err := out.Chmod(0o644); err != nil { //nolint:gosec // published sources are world-readable
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", "", err
	}
	return out.Name(), hex.EncodeToString(h.Sum(nil)), nil
}
