// Package tracecache stores structured traces on disk so repeated views of the
// same document skip decoding and reconstruction.
package tracecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"sire/internal/calltree"
	"sire/internal/sirdoc"
)

// schemaVersion is bumped whenever Payload changes shape.
const schemaVersion uint16 = 1

// Key identifies a cache entry: the digest of the raw document and the
// options that shaped the result.
type Key [sha256.Size]byte

// KeyFor derives the cache key of raw built with opts.
func KeyFor(raw []byte, opts sirdoc.Options) Key {
	h := sha256.New()
	h.Write(raw)
	var flags [3]byte
	if opts.Reconstruct.Lenient {
		flags[0] = 1
	}
	if opts.Reconstruct.MatchNames {
		flags[1] = 1
	}
	if opts.CheckRefs {
		flags[2] = 1
	}
	h.Write(flags[:])
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// String returns the hex form of the key.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Payload is the on-disk record. The value pool keeps its JSON wire form
// because Value is an interface the msgpack codec cannot rebuild on its own.
type Payload struct {
	Schema   uint16
	Source   string
	Stored   time.Time
	Calls    []*calltree.Call
	Stage3   []byte
	Events   int
	MaxDepth int
	Values   int
	Issues   []string
}

// Cache is a directory of msgpack payloads. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/sire or ~/.cache/sire.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "sire"), nil
}

// Open creates dir if needed and returns a cache rooted there. An empty dir
// means DefaultDir.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "traces", key.String()+".mp")
}

// Put stores t under key, replacing any previous entry atomically.
func (c *Cache) Put(key Key, source string, t *sirdoc.StructuredTrace, rep sirdoc.Report) error {
	if c == nil {
		return nil
	}
	payload := &Payload{
		Schema:   schemaVersion,
		Source:   source,
		Stored:   time.Now().UTC(),
		Calls:    t.Events,
		Events:   rep.Events,
		MaxDepth: rep.MaxDepth,
		Values:   rep.Values,
	}
	for _, issue := range rep.Issues {
		payload.Issues = append(payload.Issues, issue.Error())
	}
	if t.Stage3 != nil {
		raw, err := json.Marshal(t.Stage3)
		if err != nil {
			return fmt.Errorf("encode stage3: %w", err)
		}
		payload.Stage3 = raw
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get loads the entry for key. A missing entry or one written by another
// schema version reports false without error.
func (c *Cache) Get(key Key) (*sirdoc.StructuredTrace, *Payload, bool, error) {
	if c == nil {
		return nil, nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if payload.Schema != schemaVersion {
		return nil, nil, false, nil
	}
	out := &sirdoc.StructuredTrace{Events: payload.Calls}
	if out.Events == nil {
		out.Events = []*calltree.Call{}
	}
	if len(payload.Stage3) > 0 {
		var st sirdoc.Stage3
		if err := json.Unmarshal(payload.Stage3, &st); err != nil {
			return nil, nil, false, fmt.Errorf("decode cached stage3 %s: %w", key, err)
		}
		out.Stage3 = &st
	}
	return out, &payload, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "traces"))
}
