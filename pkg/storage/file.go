package storage

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
)

const (
	fileSuffix = ".entry"
	// keys longer than this are refused; cache keys stay far below it
	maxFileKeyLen = 64 << 10
)

// File persists each key as one file inside a private directory, so a CLI session
// survives between invocations. Files are named by the SHA-256 of the key, which
// keeps names short whatever the key length; the key itself heads the file.
type File struct {
	mu  sync.Mutex
	dir string
}

// NewFile creates (if needed) dir with owner-only permissions and returns a store rooted there
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the backing directory
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+fileSuffix)
}

// Entry layout: uvarint key length, key, value

func encodeEntry(key string, value []byte) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(key)+len(value))
	buf = binary.AppendUvarint(buf, uint64(len(key)))
	buf = append(buf, key...)
	return append(buf, value...)
}

// readEntryKey reads the key heading an entry and leaves r at the value
func readEntryKey(r *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > maxFileKeyLen {
		return "", errors.New("key header too long")
	}
	key := make([]byte, n)
	if _, err := io.ReadFull(r, key); err != nil {
		return "", err
	}
	return string(key), nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %q: %v", ErrUnavailable, key, err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	stored, err := readEntryKey(r)
	if err != nil || stored != key {
		// unreadable header or a foreign entry under the same hash
		return nil, ErrNotFound
	}
	value, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrUnavailable, key, err)
	}
	return value, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	if len(key) > maxFileKeyLen {
		return fmt.Errorf("%w: key of %d bytes is too long", ErrUnavailable, len(key))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return classifyWriteErr(key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encodeEntry(key, value)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return classifyWriteErr(key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return classifyWriteErr(key, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return classifyWriteErr(key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return classifyWriteErr(key, err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: delete %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (f *File) Keys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, f.dir, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := f.entryKey(filepath.Join(f.dir, name))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) entryKey(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return readEntryKey(bufio.NewReader(file))
}

func classifyWriteErr(key string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: write %q: %v", ErrQuotaExceeded, key, err)
	}
	return fmt.Errorf("%w: write %q: %v", ErrUnavailable, key, err)
}
