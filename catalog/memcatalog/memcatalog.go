// Package memcatalog provides an in-memory, no-I/O implementation of
// catalog.Catalog for tests and embedded use where durability is not
// required. It mirrors the mapping shape of a persisted catalog
// (namespace path -> properties, (namespace, name) -> metadata) while
// holding everything in locked maps.
package memcatalog

import (
	"context"
	"strings"
	"sync"

	"github.com/icelake-io/iceberg-engine/catalog"
	"github.com/icelake-io/iceberg-engine/metadata"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

type tableEntry struct {
	meta     *metadata.TableMetadata
	location string
}

// Catalog is a sync.RWMutex-guarded in-memory catalog.
type Catalog struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string // namespace key -> properties
	tables     map[string]*tableEntry       // namespace key + "\x1e" + name -> entry
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		namespaces: map[string]map[string]string{"": {}}, // the root namespace always exists
		tables:     map[string]*tableEntry{},
	}
}

func nsKey(path []string) string { return strings.Join(path, "\x1f") }

func tableKey(id catalog.Identifier) string {
	return nsKey(id.Namespace) + "\x1e" + id.Name
}

func (c *Catalog) ListNamespaces(_ context.Context, parent []string) ([][]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefix := nsKey(parent)
	var out [][]string
	for key := range c.namespaces {
		if key == prefix {
			continue
		}
		parts := splitKey(key)
		if len(parts) != len(parent)+1 {
			continue
		}
		if nsKey(parts[:len(parent)]) != prefix {
			continue
		}
		out = append(out, parts)
	}
	return out, nil
}

func splitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, "\x1f")
}

func (c *Catalog) CreateNamespace(_ context.Context, path []string, props map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := nsKey(path)
	if _, exists := c.namespaces[key]; exists {
		return errors.AlreadyExists("namespace already exists").AddContext("namespace", key)
	}
	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	c.namespaces[key] = cp
	return nil
}

func (c *Catalog) DropNamespace(_ context.Context, path []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := nsKey(path)
	if _, exists := c.namespaces[key]; !exists {
		return errors.NotFound("namespace does not exist").AddContext("namespace", key)
	}
	prefix := key + "\x1e"
	for tk := range c.tables {
		if strings.HasPrefix(tk, prefix) {
			return errors.NotEmpty("namespace is not empty").AddContext("namespace", key)
		}
	}
	delete(c.namespaces, key)
	return nil
}

func (c *Catalog) NamespaceExists(_ context.Context, path []string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.namespaces[nsKey(path)]
	return ok, nil
}

func (c *Catalog) LoadNamespaceProperties(_ context.Context, path []string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	props, ok := c.namespaces[nsKey(path)]
	if !ok {
		return nil, errors.NotFound("namespace does not exist").AddContext("namespace", nsKey(path))
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, nil
}

func (c *Catalog) UpdateNamespaceProperties(_ context.Context, path []string, updates map[string]string, removals []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := nsKey(path)
	props, ok := c.namespaces[key]
	if !ok {
		return errors.NotFound("namespace does not exist").AddContext("namespace", key)
	}
	for _, k := range removals {
		delete(props, k)
	}
	for k, v := range updates {
		props[k] = v
	}
	return nil
}

func (c *Catalog) ListTables(_ context.Context, namespace []string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefix := nsKey(namespace) + "\x1e"
	var out []string
	for tk := range c.tables {
		if strings.HasPrefix(tk, prefix) {
			out = append(out, strings.TrimPrefix(tk, prefix))
		}
	}
	return out, nil
}

func (c *Catalog) CreateTable(_ context.Context, id catalog.Identifier, meta *metadata.TableMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nsk := nsKey(id.Namespace)
	if _, ok := c.namespaces[nsk]; !ok {
		return errors.NotFound("namespace does not exist").AddContext("namespace", nsk)
	}
	tk := tableKey(id)
	if _, exists := c.tables[tk]; exists {
		return errors.AlreadyExists("table already exists").AddContext("table", tk)
	}
	c.tables[tk] = &tableEntry{meta: meta, location: meta.Location}
	return nil
}

func (c *Catalog) LoadTable(_ context.Context, id catalog.Identifier) (*metadata.TableMetadata, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.tables[tableKey(id)]
	if !ok {
		return nil, "", errors.NotFound("table does not exist").AddContext("table", tableKey(id))
	}
	return entry.meta, entry.location, nil
}

func (c *Catalog) TableExists(_ context.Context, id catalog.Identifier) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[tableKey(id)]
	return ok, nil
}

func (c *Catalog) DropTable(_ context.Context, id catalog.Identifier, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := tableKey(id)
	if _, ok := c.tables[tk]; !ok {
		return errors.NotFound("table does not exist").AddContext("table", tk)
	}
	delete(c.tables, tk)
	return nil
}

func (c *Catalog) RenameTable(_ context.Context, from, to catalog.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fk, tk := tableKey(from), tableKey(to)
	entry, ok := c.tables[fk]
	if !ok {
		return errors.NotFound("table does not exist").AddContext("table", fk)
	}
	if _, exists := c.tables[tk]; exists {
		return errors.AlreadyExists("target table already exists").AddContext("table", tk)
	}
	delete(c.tables, fk)
	c.tables[tk] = entry
	return nil
}

func (c *Catalog) CommitTable(_ context.Context, id catalog.Identifier, reqs []catalog.Requirement, updates []catalog.Update) (*metadata.TableMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tk := tableKey(id)
	entry, ok := c.tables[tk]
	if !ok {
		return nil, errors.NotFound("table does not exist").AddContext("table", tk)
	}

	for _, req := range reqs {
		if err := req.Check(entry.meta); err != nil {
			return nil, err
		}
	}

	b := metadata.FromBase(entry.meta)
	var err error
	for _, u := range updates {
		b, err = u.Apply(b)
		if err != nil {
			return nil, err
		}
	}
	newMeta, err := b.Build()
	if err != nil {
		return nil, err
	}
	entry.meta = newMeta
	entry.location = newMeta.Location
	return newMeta, nil
}

var _ catalog.Catalog = (*Catalog)(nil)
