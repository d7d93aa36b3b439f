package store

// Fingerprint persistence.
//
// The store file is a single JSON object mapping sound names to their
// fingerprints. Object key order is the learning order and is preserved
// across load/save cycles: the matcher's tie-break depends on it, so the
// codec walks the JSON token stream instead of decoding into a Go map.
// Every mutation rewrites the whole file via a temp file and an atomic
// rename.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"audio-sentry/models"
	"audio-sentry/utils"
)

// StoreFileName is the default fingerprint file name under the data dir.
const StoreFileName = "fingerprints.json"

// ErrCorruptStore reports a store file that exists but cannot be parsed.
// Open still returns a usable empty store alongside it; the next save
// overwrites the corrupt file.
var ErrCorruptStore = errors.New("fingerprint store file is corrupt")

// Store is an insertion-ordered, persistent fingerprint collection. Safe
// for concurrent readers; mutations are serialised internally but callers
// should keep a single writer per file.
type Store struct {
	mu     sync.RWMutex
	path   string
	names  []string
	prints map[string]models.Fingerprint
}

// DefaultPath returns the store location under the user data directory.
func DefaultPath() string {
	return filepath.Join(utils.DefaultDataDir(), StoreFileName)
}

// Open loads the store at path. A missing file yields an empty store. A
// file that cannot be parsed yields an empty store and ErrCorruptStore,
// so a damaged file degrades to "no sounds learned" instead of a crash.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		prints: make(map[string]models.Fingerprint),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read fingerprint store: %w", err)
	}

	if err := s.decode(data); err != nil {
		s.names = nil
		s.prints = make(map[string]models.Fingerprint)
		return s, fmt.Errorf("%w: %s", ErrCorruptStore, err)
	}
	return s, nil
}

// List returns all fingerprints in insertion order. The returned slice is
// a copy; entries share no state with the store.
func (s *Store) List() []models.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Fingerprint, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.prints[name])
	}
	return out
}

// Get looks up one fingerprint by name.
func (s *Store) Get(name string) (models.Fingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fp, ok := s.prints[name]
	return fp, ok
}

// Names returns the stored names in insertion order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...)
}

// Len reports the number of stored fingerprints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// Put inserts or overwrites a fingerprint and persists. Overwriting keeps
// the name's original position in the order.
func (s *Store) Put(fp models.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prints[fp.Name]; !exists {
		s.names = append(s.names, fp.Name)
	}
	s.prints[fp.Name] = fp
	return s.save()
}

// Remove deletes a fingerprint by name and persists. Removing an absent
// name is a no-op and does not touch the file.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prints[name]; !exists {
		return nil
	}
	delete(s.prints, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return s.save()
}

// save rewrites the whole store file atomically. Caller holds the write
// lock.
func (s *Store) save() error {
	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("encode fingerprint store: %w", err)
	}

	if err := utils.CreateFolder(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write fingerprint store: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("replace fingerprint store: %w", err)
	}
	return nil
}

// encode serialises the store as one JSON object in insertion order.
func (s *Store) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, name := range s.names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.MarshalIndent(s.prints[name], "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(s.names)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decode walks the JSON token stream so key order survives the round
// trip; encoding/json's map decoding would shuffle it.
func (s *Store) decode(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected top-level object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var fp models.Fingerprint
		if err := dec.Decode(&fp); err != nil {
			return fmt.Errorf("fingerprint %q: %w", name, err)
		}
		fp.Name = name

		if _, exists := s.prints[name]; !exists {
			s.names = append(s.names, name)
		}
		s.prints[name] = fp
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
