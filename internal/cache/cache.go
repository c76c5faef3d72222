package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// DB remembers, per file, the hash of the content textredact last wrote or
// confirmed clean. A file whose current hash matches needs no new pass as
// long as the ruleset is unchanged.
type DB struct {
	Ruleset string `json:"ruleset"`
	// Path relative to root -> xxhash of the redacted content
	Entries map[string]string `json:"entries"`
}

// Path returns where the cache for root lives. It prefers .git so the file
// is never committed by accident.
func Path(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "textredactcache.json")
	}
	return filepath.Join(root, ".textredactcache.json")
}

// Load reads the cache for root. A missing or unreadable cache yields an
// empty DB together with the error.
func Load(root string) (DB, error) {
	var db DB
	f, err := os.ReadFile(Path(root))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, fmt.Errorf("decode cache: %w", err)
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(root), b, 0644)
}

// ForRuleset returns db unchanged when it was built for ruleset, or an empty
// DB stamped with ruleset otherwise.
func (db DB) ForRuleset(ruleset string) DB {
	if db.Ruleset == ruleset && db.Entries != nil {
		return db
	}
	return DB{Ruleset: ruleset, Entries: map[string]string{}}
}

// Fresh reports whether data is exactly what was recorded for rel.
func (db DB) Fresh(rel string, data []byte) bool {
	h, ok := db.Entries[rel]
	return ok && h == Hash(data)
}

// Record stores hash, as returned by Hash, for rel.
func (db DB) Record(rel, hash string) {
	db.Entries[rel] = hash
}

// Hash is the 16 hex digit xxhash of b.
func Hash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// Ruleset fingerprints an ordered description of a redactor configuration.
func Ruleset(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.WriteString("\x00")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Prune drops entries for paths not in seen.
func (db DB) Prune(seen map[string]bool) {
	for k := range db.Entries {
		if !seen[k] {
			delete(db.Entries, k)
		}
	}
}
