package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names of the matched triple inside an artifact directory.
const (
	SchemaFile    = "schema.json"
	ScalerFile    = "scaler.json"
	PredictorFile = "predictor.json"
)

// Store reads and writes the matched triple in one directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Read loads all three blobs. A missing blob fails the whole read.
func (s *Store) Read() (Blobs, error) {
	var b Blobs
	var err error
	if b.Schema, err = os.ReadFile(filepath.Join(s.dir, SchemaFile)); err != nil {
		return Blobs{}, fmt.Errorf("failed to read schema: %w", err)
	}
	if b.Scaler, err = os.ReadFile(filepath.Join(s.dir, ScalerFile)); err != nil {
		return Blobs{}, fmt.Errorf("failed to read scaler: %w", err)
	}
	if b.Predictor, err = os.ReadFile(filepath.Join(s.dir, PredictorFile)); err != nil {
		return Blobs{}, fmt.Errorf("failed to read predictor: %w", err)
	}
	return b, nil
}

// Write replaces all three blobs. Each file is written to a temporary name
// and renamed into place; the schema goes last so a reader that sees the
// new schema also sees the blobs fitted for it.
func (s *Store) Write(b Blobs) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	for _, f := range []struct {
		name string
		data []byte
	}{
		{PredictorFile, b.Predictor},
		{ScalerFile, b.Scaler},
		{SchemaFile, b.Schema},
	} {
		if err := writeAtomic(filepath.Join(s.dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install %s: %w", filepath.Base(path), err)
	}
	return nil
}

// IsArtifactFile reports whether name is one of the blobs or a file they may reference.
func IsArtifactFile(name string) bool {
	switch filepath.Base(name) {
	case SchemaFile, ScalerFile, PredictorFile:
		return true
	}
	return filepath.Ext(name) == ".onnx"
}
