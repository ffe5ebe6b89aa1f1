// Package document loads the single source document and keeps its text cached until the source changes.
package document

import (
	"context"
	"fmt"
	"sync"

	"ragcompare/src/core/rag"
	"ragcompare/src/fsutil"
	"ragcompare/src/log"
)

// Source is where the document lives. Fingerprint must change whenever the content does.
type Source interface {
	Name() string
	Fingerprint(ctx context.Context) (string, error)
	Load(ctx context.Context) ([]byte, error)
}

// LocalSource reads the document from a file. Its fingerprint is modification time and size.
type LocalSource struct {
	fs   fsutil.FileStore
	path string
}

func NewLocalSource(fs fsutil.FileStore, path string) *LocalSource {
	return &LocalSource{fs: fs, path: path}
}

func (s *LocalSource) Name() string {
	return s.path
}

func (s *LocalSource) Fingerprint(_ context.Context) (string, error) {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", s.path)
	}
	return fsutil.Fingerprint(info), nil
}

func (s *LocalSource) Load(_ context.Context) ([]byte, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

// Store serves the document text. Each access re-checks the source fingerprint and reloads only
// when it changed, so callers always see the latest document without re-reading it every time.
type Store struct {
	source Source

	mu          sync.Mutex
	fingerprint string
	text        string
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Name identifies the document, e.g. its path.
func (s *Store) Name() string {
	return s.source.Name()
}

// Text returns the current document text. Failures are ErrDocumentLoad.
func (s *Store) Text(ctx context.Context) (string, error) {
	text, _, err := s.Snapshot(ctx)
	return text, err
}

// Snapshot returns the current text and the fingerprint it was loaded under, read together.
func (s *Store) Snapshot(ctx context.Context) (string, string, error) {
	fp, err := s.source.Fingerprint(ctx)
	if err != nil {
		return "", "", rag.Wrap(rag.ErrDocumentLoad, "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fingerprint != "" && fp == s.fingerprint {
		return s.text, s.fingerprint, nil
	}

	data, err := s.source.Load(ctx)
	if err != nil {
		return "", "", rag.Wrap(rag.ErrDocumentLoad, "", err)
	}
	text, err := Extract(s.source.Name(), data)
	if err != nil {
		return "", "", rag.Wrap(rag.ErrDocumentLoad, "", err)
	}

	log.Debug("document loaded", "source", s.source.Name(), "fingerprint", fp, "bytes", len(data))
	s.fingerprint = fp
	s.text = text
	return text, fp, nil
}

// Fingerprint returns the fingerprint of the cached text, empty before the first load.
func (s *Store) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

// Invalidate drops the cached text so that the next access reloads it.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = ""
	s.text = ""
}
