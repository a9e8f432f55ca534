// Package sqlstore provides the database-agnostic SQL storage driver shared by
// the sqlite and postgres backends. Queries are built with ent's dialect-aware
// SQL builder, so the same code emits "?" placeholders for SQLite and "$n"
// placeholders for PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/tree"
)

const (
	projectsTable = "arbor_projects"
	nodesTable    = "arbor_nodes"
)

// schema is portable between SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS arbor_projects (
		name TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		updated_ns BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS arbor_nodes (
		project TEXT NOT NULL,
		id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		parent_id TEXT,
		children TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_ns BIGINT NOT NULL,
		model_used TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		is_pinned BOOLEAN NOT NULL,
		schema_version INTEGER NOT NULL,
		PRIMARY KEY (project, id)
	)`,
	`CREATE INDEX IF NOT EXISTS arbor_nodes_project_seq ON arbor_nodes (project, seq)`,
}

var nodeColumns = []string{
	"project", "id", "seq", "parent_id", "children", "role", "content",
	"created_ns", "model_used", "token_count", "is_pinned", "schema_version",
}

// Driver implements storage.Driver over any database/sql connection that ent
// has a dialect for.
type Driver struct {
	drv *entsql.Driver
	now func() time.Time
}

// Open wraps db with ent's SQL driver for dialectName (one of ent's
// dialect.SQLite or dialect.Postgres) and creates the schema if needed.
func Open(ctx context.Context, dialectName string, db *sql.DB) (*Driver, error) {
	drv := entsql.OpenDB(dialectName, db)

	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Driver{drv: drv, now: time.Now}, nil
}

func (d *Driver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.drv.Dialect())
}

// Load returns the nodes of a project ordered by their saved sequence.
func (d *Driver) Load(ctx context.Context, project string) ([]*tree.Node, error) {
	if project == "" {
		return nil, storage.ErrEmptyProject{}
	}

	b := d.builder()

	query, args := b.Select("name").
		From(b.Table(projectsTable)).
		Where(entsql.EQ("name", project)).
		Query()

	found := false
	if err := d.scan(ctx, query, args, func(rows *entsql.Rows) error {
		found = true
		var name string
		return rows.Scan(&name)
	}); err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	if !found {
		return nil, nil
	}

	query, args = b.Select(nodeColumns[1:]...).
		From(b.Table(nodesTable)).
		Where(entsql.EQ("project", project)).
		OrderBy("seq").
		Query()

	var records []storage.Record
	if err := d.scan(ctx, query, args, func(rows *entsql.Rows) error {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	return storage.Nodes(records)
}

// Save replaces the nodes of a project inside a single transaction.
func (d *Driver) Save(ctx context.Context, project string, nodes []*tree.Node) error {
	if project == "" {
		return storage.ErrEmptyProject{}
	}

	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := d.save(ctx, tx, project, nodes); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, query string, args, v any) error
}

func (d *Driver) save(ctx context.Context, tx execer, project string, nodes []*tree.Node) error {
	b := d.builder()

	query, args := b.Delete(nodesTable).Where(entsql.EQ("project", project)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	for i, r := range storage.NewRecords(nodes) {
		children, err := json.Marshal(r.Children)
		if err != nil {
			return fmt.Errorf("failed to marshal children of %s: %w", r.ID, err)
		}

		var parent any
		if r.ParentID != nil {
			parent = *r.ParentID
		}

		query, args := b.Insert(nodesTable).
			Columns(nodeColumns...).
			Values(
				project, r.ID, i, parent, string(children), string(r.Role), r.Content,
				r.Metadata.Timestamp.UnixNano(), r.Metadata.ModelUsed, r.Metadata.TokenCount,
				r.Metadata.IsPinned, r.SchemaVersion,
			).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", r.ID, err)
		}
	}

	query, args = b.Insert(projectsTable).
		Columns("name", "schema_version", "updated_ns").
		Values(project, storage.SchemaVersion, d.now().UnixNano()).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	return nil
}

// Projects lists saved project names in ascending order.
func (d *Driver) Projects(ctx context.Context) ([]string, error) {
	b := d.builder()
	query, args := b.Select("name").
		From(b.Table(projectsTable)).
		OrderBy("name").
		Query()

	var names []string
	if err := d.scan(ctx, query, args, func(rows *entsql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	return names, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}

// DB exposes the underlying database handle.
func (d *Driver) DB() *sql.DB {
	return d.drv.DB()
}

func (d *Driver) scan(ctx context.Context, query string, args []any, each func(*entsql.Rows) error) error {
	rows := &entsql.Rows{}
	if err := d.drv.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanRecord(rows *entsql.Rows) (storage.Record, error) {
	var (
		r         storage.Record
		parent    sql.NullString
		children  string
		role      string
		createdNs int64
	)

	if err := rows.Scan(
		&r.ID, new(int), &parent, &children, &role, &r.Content,
		&createdNs, &r.Metadata.ModelUsed, &r.Metadata.TokenCount, &r.Metadata.IsPinned, &r.SchemaVersion,
	); err != nil {
		return r, fmt.Errorf("failed to scan node: %w", err)
	}

	if parent.Valid {
		p := parent.String
		r.ParentID = &p
	}
	if err := json.Unmarshal([]byte(children), &r.Children); err != nil {
		return r, tree.InvalidImportError{Reason: "children of " + r.ID, Err: err}
	}
	r.Role = tree.Role(role)
	r.Metadata.Timestamp = time.Unix(0, createdNs).UTC()

	return r, nil
}
