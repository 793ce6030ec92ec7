package parser

import (
	"fmt"
	"io"
	"os"
)

// spooled is an upload copied to a temp file for libraries that need a
// path or a ReaderAt with a known size.
type spooled struct {
	*os.File
	Size int64
}

func spool(r io.Reader, pattern string) (*spooled, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("spool %s: %w", pattern, err)
	}
	return &spooled{File: tmp, Size: size}, nil
}

// Close closes and removes the temp file.
func (s *spooled) Close() error {
	err := s.File.Close()
	os.Remove(s.Name())
	return err
}
