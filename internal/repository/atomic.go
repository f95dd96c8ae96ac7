package repository

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes path through a temp file in the same directory and
// renames it into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := createTemp(path)
	if err != nil {
		return err
	}
	if err := fillTemp(tmp, write); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Staging collects several artifact writes and publishes them together.
// Nothing reaches a final path until Commit, and Commit only runs once every
// Stage call succeeded.
type Staging struct {
	staged []stagedFile
}

type stagedFile struct {
	tmp   string
	final string
}

// Stage writes the content for final into a temp file next to it.
func (s *Staging) Stage(final string, write func(w io.Writer) error) error {
	tmp, err := createTemp(final)
	if err != nil {
		return err
	}
	if err := fillTemp(tmp, write); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.staged = append(s.staged, stagedFile{tmp: tmp.Name(), final: final})
	return nil
}

// Commit renames every staged file onto its final path.
func (s *Staging) Commit() error {
	for i, f := range s.staged {
		if err := os.Rename(f.tmp, f.final); err != nil {
			for _, rest := range s.staged[i:] {
				os.Remove(rest.tmp)
			}
			s.staged = nil
			return fmt.Errorf("failed to publish %s: %w", f.final, err)
		}
	}
	s.staged = nil
	return nil
}

// Discard removes every staged temp file. Safe to call after Commit.
func (s *Staging) Discard() {
	for _, f := range s.staged {
		os.Remove(f.tmp)
	}
	s.staged = nil
}

// Pending returns the number of staged, uncommitted files.
func (s *Staging) Pending() int {
	return len(s.staged)
}

func createTemp(final string) (*os.File, error) {
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(final)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for %s: %w", final, err)
	}
	return tmp, nil
}

func fillTemp(tmp *os.File, write func(w io.Writer) error) error {
	bw := bufio.NewWriter(tmp)
	werr := write(bw)
	if werr == nil {
		werr = bw.Flush()
	}
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	return errors.Join(werr, cerr)
}
