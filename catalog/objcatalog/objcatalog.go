// Package objcatalog implements catalog.Catalog on top of an
// objectstore.ObjectStore, persisting namespace properties as small
// JSON blobs and delegating every table's current-metadata pointer to
// a commit.Committer over that table's location. Both keep their
// payloads in the store itself; this package holds no durable state.
package objcatalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/catalog"
	"github.com/icelake-io/iceberg-engine/commit"
	"github.com/icelake-io/iceberg-engine/metadata"
	"github.com/icelake-io/iceberg-engine/objectstore"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Catalog roots every namespace and table path under warehouseRoot.
type Catalog struct {
	store         objectstore.ObjectStore
	warehouseRoot string
	logger        zerolog.Logger
}

// New returns a catalog backed by store, rooting every namespace and
// table under warehouseRoot (e.g. "s3://bucket/warehouse").
func New(store objectstore.ObjectStore, warehouseRoot string, logger zerolog.Logger) *Catalog {
	return &Catalog{store: store, warehouseRoot: strings.TrimSuffix(warehouseRoot, "/"), logger: logger}
}

func (c *Catalog) namespacePropsPath(path []string) string {
	return c.warehouseRoot + "/" + strings.Join(path, "/") + "/namespace.json"
}

func (c *Catalog) tableLocation(id catalog.Identifier) string {
	return c.warehouseRoot + "/" + strings.Join(id.Namespace, "/") + "/" + id.Name
}

func (c *Catalog) tableVersionHint(id catalog.Identifier) string {
	return commit.NewCommitter(c.store, c.tableLocation(id)).VersionHintPath()
}

func (c *Catalog) ListNamespaces(ctx context.Context, parent []string) ([][]string, error) {
	prefix := c.warehouseRoot
	if len(parent) > 0 {
		prefix += "/" + strings.Join(parent, "/")
	}
	prefix += "/"

	paths, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out [][]string
	for _, p := range paths {
		if !strings.HasSuffix(p, "/namespace.json") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimSuffix(p, "/namespace.json"), prefix)
		if rel == "" {
			continue
		}
		segments := strings.Split(rel, "/")
		if len(segments) != 1 {
			continue // only direct children
		}
		if !seen[segments[0]] {
			seen[segments[0]] = true
			out = append(out, append(append([]string{}, parent...), segments[0]))
		}
	}
	return out, nil
}

func (c *Catalog) CreateNamespace(ctx context.Context, path []string, props map[string]string) error {
	if props == nil {
		props = map[string]string{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return errors.New(errors.CatalogCode("namespace_encode_failed"), "failed to encode namespace properties", err)
	}
	if err := c.store.PutIfAbsent(ctx, c.namespacePropsPath(path), data); err != nil {
		return err
	}
	return nil
}

func (c *Catalog) DropNamespace(ctx context.Context, path []string) error {
	tables, err := c.ListTables(ctx, path)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		return errors.NotEmpty("namespace is not empty").AddContext("namespace", strings.Join(path, "/"))
	}
	return c.store.Delete(ctx, c.namespacePropsPath(path))
}

func (c *Catalog) NamespaceExists(ctx context.Context, path []string) (bool, error) {
	_, err := c.store.Get(ctx, c.namespacePropsPath(path))
	if err != nil {
		if errors.IsCode(err, errors.CommonNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Catalog) LoadNamespaceProperties(ctx context.Context, path []string) (map[string]string, error) {
	data, err := c.store.Get(ctx, c.namespacePropsPath(path))
	if err != nil {
		return nil, err
	}
	var props map[string]string
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, errors.New(errors.CatalogCode("namespace_decode_failed"), "failed to decode namespace properties", err)
	}
	return props, nil
}

func (c *Catalog) UpdateNamespaceProperties(ctx context.Context, path []string, updates map[string]string, removals []string) error {
	props, err := c.LoadNamespaceProperties(ctx, path)
	if err != nil {
		return err
	}
	for _, k := range removals {
		delete(props, k)
	}
	for k, v := range updates {
		props[k] = v
	}
	data, err := json.Marshal(props)
	if err != nil {
		return errors.New(errors.CatalogCode("namespace_encode_failed"), "failed to encode namespace properties", err)
	}
	return c.store.Put(ctx, c.namespacePropsPath(path), data)
}

func (c *Catalog) ListTables(ctx context.Context, namespace []string) ([]string, error) {
	prefix := c.warehouseRoot + "/" + strings.Join(namespace, "/") + "/"
	paths, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if !strings.HasSuffix(p, "/metadata/version-hint.text") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimSuffix(p, "/metadata/version-hint.text"), prefix)
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}
	return out, nil
}

func (c *Catalog) CreateTable(ctx context.Context, id catalog.Identifier, meta *metadata.TableMetadata) error {
	committer := commit.NewCommitter(c.store, c.tableLocation(id), commit.WithLogger(c.logger))
	_, err := committer.Commit(ctx, commit.State{Metadata: meta, Version: 0}, func(current *metadata.TableMetadata) (*metadata.TableMetadata, error) {
		return current, nil
	}, nil)
	return err
}

// LoadState reads this table's current version-hint and pairs it with
// meta, the metadata the caller already knows to be current (normally
// the metadata it passed to CreateTable or got back from its last
// CommitTable call).
// It exists because this catalog cannot decode persisted metadata JSON
// on its own; see LoadTable.
func (c *Catalog) LoadState(ctx context.Context, id catalog.Identifier, meta *metadata.TableMetadata) (commit.State, error) {
	committer := commit.NewCommitter(c.store, c.tableLocation(id))
	hint, err := committer.ReadHint(ctx)
	if err != nil {
		return commit.State{}, err
	}
	version, err := parseVersionFromMetadataPath(string(hint))
	if err != nil {
		return commit.State{}, err
	}
	return commit.State{Metadata: meta, Version: version, HintPath: string(hint)}, nil
}

// parseVersionFromMetadataPath extracts the leading version number
// from a "<location>/metadata/<v>-<uuid>.metadata.json" path.
func parseVersionFromMetadataPath(path string) (int, error) {
	base := path[strings.LastIndex(path, "/")+1:]
	dash := strings.Index(base, "-")
	if dash < 0 {
		return 0, errors.New(errors.CatalogCode("hint_decode_failed"), "version-hint does not match the expected metadata path shape", nil).
			AddContext("path", path)
	}
	version := 0
	for _, ch := range base[:dash] {
		if ch < '0' || ch > '9' {
			return 0, errors.New(errors.CatalogCode("hint_decode_failed"), "version-hint does not start with a numeric version", nil).
				AddContext("path", path)
		}
		version = version*10 + int(ch-'0')
	}
	return version, nil
}

func (c *Catalog) LoadTable(ctx context.Context, id catalog.Identifier) (*metadata.TableMetadata, string, error) {
	return nil, "", errors.New(errors.CatalogCode("metadata_decode_unsupported"), "objcatalog cannot decode persisted metadata JSON back into TableMetadata; callers that round-trip through this catalog must keep their own in-memory State and use CommitTable for updates", nil).
		AddContext("table", id.Name)
}

func (c *Catalog) TableExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	_, err := c.store.Get(ctx, c.tableVersionHint(id))
	if err != nil {
		if errors.IsCode(err, errors.CommonNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Catalog) DropTable(ctx context.Context, id catalog.Identifier, purge bool) error {
	exists, err := c.TableExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("table does not exist").AddContext("table", id.Name)
	}
	if !purge {
		return c.store.Delete(ctx, c.tableVersionHint(id))
	}
	files, err := c.store.List(ctx, c.tableLocation(id)+"/")
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := c.store.Delete(ctx, f); err != nil {
			c.logger.Warn().Err(err).Str("path", f).Msg("failed to purge table file")
		}
	}
	return nil
}

func (c *Catalog) RenameTable(ctx context.Context, from, to catalog.Identifier) error {
	hint, err := c.store.Get(ctx, c.tableVersionHint(from))
	if err != nil {
		return err
	}
	if err := c.store.PutIfAbsent(ctx, c.tableVersionHint(to), hint); err != nil {
		return err
	}
	return c.store.Delete(ctx, c.tableVersionHint(from))
}

// CommitTable runs the standard requirement-check-then-apply sequence
// through the commit protocol. Since this catalog cannot decode
// persisted metadata JSON (see LoadTable), callers must supply the
// state to commit against via ctx using WithState, normally one built
// by LoadState from the metadata of their own prior CreateTable or
// CommitTable call.
func (c *Catalog) CommitTable(ctx context.Context, id catalog.Identifier, reqs []catalog.Requirement, updates []catalog.Update) (*metadata.TableMetadata, error) {
	state, ok := StateFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.CatalogCode("state_required"), "objcatalog.CommitTable requires the caller's last known State via WithState(ctx, state)", nil).
			AddContext("table", id.Name)
	}

	committer := commit.NewCommitter(c.store, c.tableLocation(id), commit.WithLogger(c.logger))
	result, err := committer.Commit(ctx, state, func(current *metadata.TableMetadata) (*metadata.TableMetadata, error) {
		for _, req := range reqs {
			if err := req.Check(current); err != nil {
				return nil, err
			}
		}
		b := metadata.FromBase(current)
		var applyErr error
		for _, u := range updates {
			b, applyErr = u.Apply(b)
			if applyErr != nil {
				return nil, applyErr
			}
		}
		return b.Build()
	}, nil)
	if err != nil {
		return nil, err
	}
	return result.Metadata, nil
}

var _ catalog.Catalog = (*Catalog)(nil)
