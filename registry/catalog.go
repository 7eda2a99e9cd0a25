package crochetregistry

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	crochetschema "github.com/superisaac/crochet/schema"
)

// Catalog compiles registry schemas on first use and caches them.
// Schemas of one registry may refer to each other by key.
type Catalog struct {
	registry Registry

	mutex    sync.Mutex
	compiled map[string]*crochetschema.Schema
}

func NewCatalog(registry Registry) *Catalog {
	return &Catalog{
		registry: registry,
		compiled: make(map[string]*crochetschema.Schema),
	}
}

func (self *Catalog) Registry() Registry {
	return self.registry
}

func (self *Catalog) Keys() []string {
	return self.registry.Keys()
}

// Schema returns the compiled schema of key, compiling it once.
func (self *Catalog) Schema(key string) (*crochetschema.Schema, error) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if s, ok := self.compiled[key]; ok {
		return s, nil
	}

	data, err := self.registry.Get(key)
	if err != nil {
		return nil, err
	}
	builder := crochetschema.NewSchemaBuilder()
	if err := builder.AddNamedSchemaBytes(key, data); err != nil {
		return nil, errors.Wrapf(err, "load schema %s", key)
	}

	// a sibling that fails to load only matters once it is referenced,
	// the reference then stays unresolved
	for _, name := range self.registry.Keys() {
		if name == key {
			continue
		}
		data, err := self.registry.Get(name)
		if err == nil {
			err = builder.AddNamedSchemaBytes(name, data)
		}
		if err != nil {
			log.WithFields(log.Fields{
				"schema":  key,
				"sibling": name,
			}).Warnf("skip sibling schema: %s", err)
		}
	}
	s, err := builder.BuildNamed(key)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"schema": key,
		"nodes":  s.Len(),
	}).Debug("schema compiled")
	self.compiled[key] = s
	return s, nil
}

// Validate checks a parsed document against the schema of key.
func (self *Catalog) Validate(key string, doc any) (*crochetschema.ValidationResult, error) {
	s, err := self.Schema(key)
	if err != nil {
		return nil, err
	}
	return s.Validate(doc), nil
}
