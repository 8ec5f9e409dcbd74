package amalgamation

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceFile = "sqlite3.c"
	HeaderFile = "sqlite3.h"
	StampFile  = "stamp.yaml"
)

// Location is where the artifact files live.
type Location struct {
	Dir    string
	Source string
	Header string
}

// Artifact is a generated amalgamation and its provenance.
type Artifact struct {
	Location
	Version      string
	Commit       string
	SourceSHA256 string
	HeaderSHA256 string
	SourceBytes  int64
	HeaderBytes  int64
}

// Stamp returns the provenance record written next to the artifact.
func (a *Artifact) Stamp() Stamp {
	return Stamp{
		Version:      a.Version,
		Commit:       a.Commit,
		SourceSHA256: a.SourceSHA256,
		HeaderSHA256: a.HeaderSHA256,
		BuiltAt:      time.Now().UTC(),
	}
}

// Stamp is persisted as stamp.yaml in the build directory.
type Stamp struct {
	Version      string    `yaml:"version"`
	Commit       string    `yaml:"commit"`
	SourceSHA256 string    `yaml:"source_sha256"`
	HeaderSHA256 string    `yaml:"header_sha256"`
	BuiltAt      time.Time `yaml:"built_at"`
}

// Matches reports whether the stamp was produced from commit.
func (s *Stamp) Matches(commit string) bool {
	return s != nil && commit != "" && s.Commit == commit
}

// ReadStamp loads stamp.yaml from dir. It returns (nil, nil) when there is none.
func ReadStamp(dir string) (*Stamp, error) {
	data, err := os.ReadFile(filepath.Join(dir, StampFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stamp: %w", err)
	}
	var s Stamp
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse stamp: %w", err)
	}
	return &s, nil
}

func writeStamp(dir string, s Stamp) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stamp: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, StampFile), data, 0o600)
}

// digestFile returns the hex SHA-256 and size of the file at path.
func digestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
