// Package style stores the user's organizing preferences as a YAML document.
package style

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Style is the style document. Keys other than the two known sections are preserved
type Style struct {
	LLM   []string       `yaml:"LLM Style"`
	User  []string       `yaml:"User Style"`
	Extra map[string]any `yaml:",inline"`
}

// Default returns the document written on first use
func Default() Style {
	return Style{
		LLM: []string{
			"Images: .jpg, .png, .gif",
			"Documents: .pdf, .docx, .txt",
		},
		User: []string{
			"Projects: project_*",
			"Videos: .mp4, .avi",
		},
	}
}

// YAML renders the document
func (s Style) YAML() (string, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal style: %w", err)
	}
	return string(b), nil
}

// Store reads and writes the style file
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the location of the style file
func (s *Store) Path() string {
	return s.path
}

// Ensure writes the default document if the style file doesn't exist. It returns true if the file was created
func (s *Store) Ensure() (bool, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return false, fmt.Errorf("failed to check style file '%s': %w", s.path, err)
	}
	if exists {
		return false, nil
	}
	if err := s.Save(Default()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads the style file. A missing file yields the default document
func (s *Store) Load() (Style, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	} else if err != nil {
		return Style{}, fmt.Errorf("failed to read style file '%s': %w", s.path, err)
	}

	var st Style
	if err := yaml.Unmarshal(b, &st); err != nil {
		return Style{}, fmt.Errorf("failed to parse style file '%s': %w", s.path, err)
	}
	return st, nil
}

// Save overwrites the style file with st
func (s *Store) Save(st Style) error {
	out, err := st.YAML()
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for style file: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write style file '%s': %w", s.path, err)
	}
	return nil
}

// UpdateLLMStyle replaces the "LLM Style" section and keeps everything else
func (s *Store) UpdateLLMStyle(rules []string) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	st.LLM = rules
	return s.Save(st)
}

// Reset overwrites the style file with the default document
func (s *Store) Reset() error {
	return s.Save(Default())
}
