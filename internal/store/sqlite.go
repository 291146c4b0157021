package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
)

// driverName is modernc.org/sqlite's registered driver.
const driverName = "sqlite"

// Archive is a SQLite-backed store of named concordances. The pure Go
// driver keeps the binary CGO-free.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS concordances (
	name         TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	saved_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS hits (
	cnc_name TEXT NOT NULL REFERENCES concordances(name) ON DELETE CASCADE,
	uuid     TEXT NOT NULL,
	position INTEGER NOT NULL,
	ref      TEXT NOT NULL DEFAULT '',
	tags     TEXT NOT NULL DEFAULT '{}',
	keywords TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (cnc_name, uuid)
);
CREATE TABLE IF NOT EXISTS tokens (
	cnc_name TEXT NOT NULL,
	hit_uuid TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	form     TEXT NOT NULL,
	display  TEXT NOT NULL DEFAULT '',
	span     INTEGER NOT NULL DEFAULT 1,
	tags     TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (cnc_name, hit_uuid, idx),
	FOREIGN KEY (cnc_name, hit_uuid) REFERENCES hits(cnc_name, uuid) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_hits_cnc ON hits(cnc_name, position);
`

// OpenArchive opens (creating if needed) a SQLite archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "opening archive %s", path)
	}
	// The pragma is per-connection; a single pooled connection keeps it
	// in force for every statement.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, cerrors.Wrap(err, "enabling foreign keys")
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, cerrors.Wrap(err, "creating archive schema")
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores a concordance under name, replacing any previous version.
func (a *Archive) Save(ctx context.Context, name string, cnc *concordance.Concordance) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM concordances WHERE name = ?`, name); err != nil {
		return cerrors.Wrapf(err, "replacing concordance %q", name)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO concordances (name, content_hash) VALUES (?, ?)`,
		name, cnc.ContentHash()); err != nil {
		return cerrors.Wrapf(err, "inserting concordance %q", name)
	}

	hitStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hits (cnc_name, uuid, position, ref, tags, keywords) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return cerrors.Wrap(err, "preparing hit insert")
	}
	defer hitStmt.Close()
	tokStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tokens (cnc_name, hit_uuid, idx, form, display, span, tags) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return cerrors.Wrap(err, "preparing token insert")
	}
	defer tokStmt.Close()

	for pos, hit := range cnc.Hits {
		tags, err := json.Marshal(hit.Tags)
		if err != nil {
			return cerrors.Wrapf(err, "encoding tags of hit %q", hit.Ref)
		}
		kws, err := json.Marshal(hit.Keywords)
		if err != nil {
			return cerrors.Wrapf(err, "encoding keywords of hit %q", hit.Ref)
		}
		if _, err := hitStmt.ExecContext(ctx,
			name, hit.UUID.String(), pos, hit.Ref, string(tags), string(kws)); err != nil {
			return cerrors.Wrapf(err, "inserting hit %q", hit.Ref)
		}
		for _, tok := range hit.Tokens {
			tokTags, err := json.Marshal(tok.Tags)
			if err != nil {
				return cerrors.Wrapf(err, "encoding tags of token %d", tok.Index)
			}
			if _, err := tokStmt.ExecContext(ctx,
				name, hit.UUID.String(), tok.Index, tok.Form, tok.Display, tok.Width(), string(tokTags)); err != nil {
				return cerrors.Wrapf(err, "inserting token %d of hit %q", tok.Index, hit.Ref)
			}
		}
	}
	return cerrors.Wrap(tx.Commit(), "committing save")
}

// Load retrieves a named concordance from the archive.
func (a *Archive) Load(ctx context.Context, name string) (*concordance.Concordance, error) {
	var exists int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM concordances WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, cerrors.Wrapf(err, "looking up concordance %q", name)
	}
	if exists == 0 {
		return nil, cerrors.NewNotFound("concordance", name)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT uuid, ref, tags, keywords FROM hits WHERE cnc_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, cerrors.Wrapf(err, "loading hits of %q", name)
	}
	defer rows.Close()

	cnc := concordance.New()
	for rows.Next() {
		var rawUUID, ref, tags, kws string
		if err := rows.Scan(&rawUUID, &ref, &tags, &kws); err != nil {
			return nil, cerrors.Wrap(err, "scanning hit row")
		}
		id, err := uuid.Parse(rawUUID)
		if err != nil {
			return nil, cerrors.Wrapf(err, "parsing hit uuid %q", rawUUID)
		}
		hit := &concordance.Hit{UUID: id, Ref: ref}
		if err := json.Unmarshal([]byte(tags), &hit.Tags); err != nil {
			return nil, cerrors.Wrapf(err, "decoding tags of hit %q", ref)
		}
		if err := json.Unmarshal([]byte(kws), &hit.Keywords); err != nil {
			return nil, cerrors.Wrapf(err, "decoding keywords of hit %q", ref)
		}
		cnc.Append(hit)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(err, "iterating hit rows")
	}

	for _, hit := range cnc.Hits {
		if err := a.loadTokens(ctx, name, hit); err != nil {
			return nil, err
		}
	}
	return cnc, nil
}

func (a *Archive) loadTokens(ctx context.Context, name string, hit *concordance.Hit) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT idx, form, display, span, tags FROM tokens WHERE cnc_name = ? AND hit_uuid = ? ORDER BY idx`,
		name, hit.UUID.String())
	if err != nil {
		return cerrors.Wrapf(err, "loading tokens of hit %q", hit.Ref)
	}
	defer rows.Close()

	for rows.Next() {
		var idx, span int
		var form, display, tags string
		if err := rows.Scan(&idx, &form, &display, &span, &tags); err != nil {
			return cerrors.Wrap(err, "scanning token row")
		}
		tok := &concordance.Token{Index: idx, Form: form, Display: display, Span: span}
		if err := json.Unmarshal([]byte(tags), &tok.Tags); err != nil {
			return cerrors.Wrapf(err, "decoding tags of token %d", idx)
		}
		hit.Tokens = append(hit.Tokens, tok)
	}
	return cerrors.Wrap(rows.Err(), "iterating token rows")
}

// List returns the names of all stored concordances with their content
// hashes, ordered by name.
func (a *Archive) List(ctx context.Context) (map[string]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name, content_hash FROM concordances ORDER BY name`)
	if err != nil {
		return nil, cerrors.Wrap(err, "listing concordances")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, hash string
		if err := rows.Scan(&name, &hash); err != nil {
			return nil, cerrors.Wrap(err, "scanning concordance row")
		}
		out[name] = hash
	}
	return out, cerrors.Wrap(rows.Err(), "iterating concordance rows")
}

// Delete removes a named concordance; deleting an absent name is an error.
func (a *Archive) Delete(ctx context.Context, name string) error {
	res, err := a.db.ExecContext(ctx, `DELETE FROM concordances WHERE name = ?`, name)
	if err != nil {
		return cerrors.Wrapf(err, "deleting concordance %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return cerrors.Wrap(err, "checking delete result")
	}
	if n == 0 {
		return cerrors.NewNotFound("concordance", name)
	}
	return nil
}
