// Package crochetregistry locates schema documents by key and keeps the
// compiled schemas around for reuse.
package crochetregistry

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const schemaSuffix = ".schema.json"

var ErrUnknownSchemaKey = errors.New("unknown schema key")

// UnknownSchemaKeyError is returned for a registry lookup miss, it
// unwraps to ErrUnknownSchemaKey.
type UnknownSchemaKeyError struct {
	Key       string
	Available []string
}

func (self UnknownSchemaKeyError) Error() string {
	return fmt.Sprintf("Unknown schema: %s. Available schemas: %s", self.Key, strings.Join(self.Available, ", "))
}

func (self UnknownSchemaKeyError) Unwrap() error {
	return ErrUnknownSchemaKey
}

// Registry supplies raw schema documents by key.
type Registry interface {
	Get(key string) ([]byte, error)
	// Keys returns the known keys in sorted order
	Keys() []string
}

//go:embed schemas/*.schema.json
var embeddedSchemas embed.FS

// EmbeddedRegistry serves the schemas shipped inside the binary.
type EmbeddedRegistry struct {
	fs   embed.FS
	keys []string
}

func NewEmbeddedRegistry() *EmbeddedRegistry {
	entries, err := embeddedSchemas.ReadDir("schemas")
	if err != nil {
		// the embed pattern guarantees the directory
		panic(err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if key, ok := keyOf(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return &EmbeddedRegistry{fs: embeddedSchemas, keys: keys}
}

func (self *EmbeddedRegistry) Get(key string) ([]byte, error) {
	if !validKey(key) {
		return nil, &UnknownSchemaKeyError{Key: key, Available: self.Keys()}
	}
	data, err := self.fs.ReadFile("schemas/" + key + schemaSuffix)
	if err != nil {
		return nil, &UnknownSchemaKeyError{Key: key, Available: self.Keys()}
	}
	return data, nil
}

func (self *EmbeddedRegistry) Keys() []string {
	keys := make([]string, len(self.keys))
	copy(keys, self.keys)
	return keys
}

// DirRegistry serves <dir>/<key>.schema.json files.
type DirRegistry struct {
	Dir string
}

func NewDirRegistry(dir string) *DirRegistry {
	return &DirRegistry{Dir: dir}
}

func (self *DirRegistry) Get(key string) ([]byte, error) {
	if !validKey(key) {
		return nil, &UnknownSchemaKeyError{Key: key, Available: self.Keys()}
	}
	data, err := os.ReadFile(filepath.Join(self.Dir, key+schemaSuffix))
	if os.IsNotExist(err) {
		return nil, &UnknownSchemaKeyError{Key: key, Available: self.Keys()}
	} else if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", key)
	}
	return data, nil
}

func (self *DirRegistry) Keys() []string {
	entries, err := os.ReadDir(self.Dir)
	if err != nil {
		return []string{}
	}
	keys := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := keyOf(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func keyOf(filename string) (string, bool) {
	if !strings.HasSuffix(filename, schemaSuffix) {
		return "", false
	}
	key := strings.TrimSuffix(filename, schemaSuffix)
	return key, validKey(key)
}

// keys never name a path outside the registry
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}
