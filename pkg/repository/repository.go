// Package repository implements the Repository Layer:
// persistent storage of Sources, Transcript Cache entries, Content
// Artifacts, and Brain Sessions over database/sql, with SQLite,
// PostgreSQL and MySQL drivers selectable by config.DBDriver.
//
// Grounded on pkg/config/dbpool.go connection-pooling
// idiom (single-connection SQLite to avoid "database is locked",
// PRAGMA tuning, a PingContext smoke test on open) adapted from a
// shared multi-provider pool into one repository's own *sql.DB, since
// this system has exactly one logical database rather than many named
// provider configs.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/brain"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/transcript"
)

// Repository is the single persistence boundary. It
// is storage only — never consulted for ordering guarantees, which
// remain an in-memory concern of the callers that own them.
type Repository struct {
	db      *sql.DB
	dialect string
	log     *slog.Logger
}

// Open connects to driver/dsn, runs PingContext, applies SQLite
// pragmas where relevant, and ensures the schema exists.
func Open(ctx context.Context, driver config.DBDriver, dsn string) (*Repository, error) {
	driverName := driverNameFor(driver)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "opening database", err)
	}

	if driverName == "sqlite3" {
		// SQLite only supports one writer at a time; serializing all
		// access through a single connection avoids "database is
		// locked" under this pipeline's modest concurrency.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "connecting to database", err)
	}

	if driverName == "sqlite3" {
		_, _ = db.ExecContext(pingCtx, "PRAGMA journal_mode=WAL")
		_, _ = db.ExecContext(pingCtx, "PRAGMA busy_timeout=10000")
	}

	r := &Repository{db: db, dialect: dialectFor(driver), log: slog.Default()}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func driverNameFor(d config.DBDriver) string {
	if d == config.DriverSQLite {
		return "sqlite3"
	}
	return string(d)
}

func dialectFor(d config.DBDriver) string {
	if d == config.DriverSQLite {
		return "sqlite"
	}
	return string(d)
}

func (r *Repository) Close() error { return r.db.Close() }

// migrate creates every table this repository owns if it does not
// already exist. Column types are kept to the SQLite/MySQL/Postgres
// common subset (TEXT/INTEGER/REAL) rather than reaching for a
// migration-file library — the persisted layout is logical, not
// engine-specific, and four small tables don't warrant a migration
// runner's bookkeeping.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT,
			text TEXT NOT NULL,
			summary TEXT,
			topics TEXT,
			tags TEXT,
			metadata TEXT,
			indexed_at INTEGER,
			surrogate TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS transcript_cache (
			video_id TEXT NOT NULL,
			language_code TEXT NOT NULL,
			variant TEXT NOT NULL,
			text TEXT NOT NULL,
			source_language TEXT,
			cached_at INTEGER,
			PRIMARY KEY (video_id, language_code, variant)
		)`,
		`CREATE TABLE IF NOT EXISTS content_artifacts (
			content_id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS brain_sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			vision TEXT,
			user_source_ids TEXT,
			primary_source_ids TEXT,
			supporting_source_ids TEXT,
			matched_source_ids TEXT,
			matched_scores TEXT,
			chosen_count INTEGER,
			rationale TEXT,
			generated_content_ids TEXT,
			status TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return apperr.Wrap(apperr.KindStorageUnavailable, "running schema migration", err)
		}
	}
	return nil
}

// rebind rewrites `?` placeholders to `$1, $2, ...` for the postgres
// dialect; sqlite and mysql both accept `?` natively.
func (r *Repository) rebind(query string) string {
	if r.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

// --- Sources -----------------------------------------------------------

// PutSource upserts a Source. A single upsert statement is already
// atomic at the row level, which is all one Source write needs.
func (r *Repository) PutSource(ctx context.Context, s *content.Source) error {
	topics, _ := json.Marshal(s.Topics)
	tags, _ := json.Marshal(s.Tags)
	metadata, _ := json.Marshal(s.Metadata)
	surrogate, _ := json.Marshal(s.Surrogate)

	_, err := r.exec(ctx, `DELETE FROM sources WHERE id = ?`, s.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "replacing source", err)
	}
	_, err = r.exec(ctx,
		`INSERT INTO sources (id, kind, title, text, summary, topics, tags, metadata, indexed_at, surrogate)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Kind), s.Title, s.Text, s.Summary, string(topics), string(tags), string(metadata), s.IndexedAt, string(surrogate),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "inserting source", err)
	}
	return nil
}

// GetSource fetches a Source by id.
func (r *Repository) GetSource(ctx context.Context, id string) (*content.Source, bool, error) {
	row := r.queryRow(ctx,
		`SELECT id, kind, title, text, summary, topics, tags, metadata, indexed_at, surrogate FROM sources WHERE id = ?`,
		id,
	)
	s, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindStorageUnavailable, "fetching source", err)
	}
	return s, true, nil
}

// ListSources returns every indexed Source, most-recently-indexed
// first (the same tie-break order the Brain Retriever uses).
func (r *Repository) ListSources(ctx context.Context) ([]*content.Source, error) {
	rows, err := r.query(ctx,
		`SELECT id, kind, title, text, summary, topics, tags, metadata, indexed_at, surrogate
		 FROM sources ORDER BY indexed_at DESC`,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "listing sources", err)
	}
	defer rows.Close()

	var out []*content.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorageUnavailable, "scanning source row", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSource removes a Source by id.
func (r *Repository) DeleteSource(ctx context.Context, id string) error {
	_, err := r.exec(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "deleting source", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*content.Source, error) {
	var (
		s                                       content.Source
		kind, topics, tags, metadata, surrogate string
	)
	if err := row.Scan(&s.ID, &kind, &s.Title, &s.Text, &s.Summary, &topics, &tags, &metadata, &s.IndexedAt, &surrogate); err != nil {
		return nil, err
	}
	s.Kind = content.SourceKind(kind)
	_ = json.Unmarshal([]byte(topics), &s.Topics)
	_ = json.Unmarshal([]byte(tags), &s.Tags)
	_ = json.Unmarshal([]byte(metadata), &s.Metadata)
	_ = json.Unmarshal([]byte(surrogate), &s.Surrogate)
	return &s, nil
}

var (
	_ brain.Sources       = (*Repository)(nil)
	_ brain.SourceFetcher = (*Repository)(nil)
	_ brain.Sessions      = (*Repository)(nil)
)

// --- Transcript cache ----------------------------------------------------

// PutTranscriptCacheEntry persists a cache entry durably. This is a
// separate layer from transcript.Cache's in-memory map: the in-memory
// cache is the Acquirer's hot path, this table is what survives a
// process restart — both are purely a performance artifact; neither
// is ever the sole source of truth for a result already returned to
// a caller.
func (r *Repository) PutTranscriptCacheEntry(ctx context.Context, key transcript.CacheKey, entry transcript.CacheEntry) error {
	_, err := r.exec(ctx, `DELETE FROM transcript_cache WHERE video_id = ? AND language_code = ? AND variant = ?`,
		key.VideoID, key.LanguageCode, string(key.Variant))
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "replacing transcript cache entry", err)
	}
	_, err = r.exec(ctx,
		`INSERT INTO transcript_cache (video_id, language_code, variant, text, source_language, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key.VideoID, key.LanguageCode, string(key.Variant), entry.Text, entry.SourceLanguage, entry.CachedAt.Unix(),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "inserting transcript cache entry", err)
	}
	return nil
}

// GetTranscriptCacheEntry fetches a durably cached transcript by its
// composite key.
func (r *Repository) GetTranscriptCacheEntry(ctx context.Context, key transcript.CacheKey) (transcript.CacheEntry, bool, error) {
	row := r.queryRow(ctx,
		`SELECT text, source_language, cached_at FROM transcript_cache WHERE video_id = ? AND language_code = ? AND variant = ?`,
		key.VideoID, key.LanguageCode, string(key.Variant),
	)
	var (
		entry    transcript.CacheEntry
		cachedAt int64
	)
	if err := row.Scan(&entry.Text, &entry.SourceLanguage, &cachedAt); err != nil {
		if err == sql.ErrNoRows {
			return transcript.CacheEntry{}, false, nil
		}
		return transcript.CacheEntry{}, false, apperr.Wrap(apperr.KindStorageUnavailable, "fetching transcript cache entry", err)
	}
	entry.CachedAt = time.Unix(cachedAt, 0)
	return entry, true, nil
}

// PruneTranscriptCache deletes entries older than transcript.CacheTTL,
// or — if the table holds more than maxEntries rows — the oldest rows
// beyond that cap.
func (r *Repository) PruneTranscriptCache(ctx context.Context, maxEntries int) error {
	cutoff := time.Now().Add(-transcript.CacheTTL).Unix()
	if _, err := r.exec(ctx, `DELETE FROM transcript_cache WHERE cached_at < ?`, cutoff); err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "pruning expired transcript cache entries", err)
	}

	if maxEntries <= 0 {
		return nil
	}
	var count int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM transcript_cache`).Scan(&count); err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "counting transcript cache entries", err)
	}
	if count <= maxEntries {
		return nil
	}
	excess := count - maxEntries
	_, err := r.exec(ctx,
		`DELETE FROM transcript_cache WHERE rowid IN (
			SELECT rowid FROM transcript_cache ORDER BY cached_at ASC LIMIT ?
		)`, excess,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "pruning oversized transcript cache", err)
	}
	return nil
}

// --- Content artifacts -----------------------------------------------

// PutArtifact persists a generated artifact keyed by its content-id,
// serialized as JSON in a text column alongside structured columns for
// type and source-id.
func (r *Repository) PutArtifact(ctx context.Context, sourceID string, a *content.Artifact) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "marshaling artifact", err)
	}
	contentID := a.ContentID()
	_, err = r.exec(ctx, `DELETE FROM content_artifacts WHERE content_id = ?`, contentID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "replacing artifact", err)
	}
	_, err = r.exec(ctx,
		`INSERT INTO content_artifacts (content_id, source_id, type, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		contentID, sourceID, string(a.Kind), string(payload), time.Now().Unix(),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "inserting artifact", err)
	}
	return nil
}

// GetArtifact fetches one artifact by content-id.
func (r *Repository) GetArtifact(ctx context.Context, contentID string) (*content.Artifact, bool, error) {
	var payload string
	err := r.queryRow(ctx, `SELECT payload FROM content_artifacts WHERE content_id = ?`, contentID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindStorageUnavailable, "fetching artifact", err)
	}
	var a content.Artifact
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, false, apperr.Wrap(apperr.KindStorageUnavailable, "unmarshaling artifact", err)
	}
	return &a, true, nil
}

// ListArtifactsForSource returns every artifact generated from
// sourceID, in insertion order.
func (r *Repository) ListArtifactsForSource(ctx context.Context, sourceID string) ([]*content.Artifact, error) {
	rows, err := r.query(ctx,
		`SELECT payload FROM content_artifacts WHERE source_id = ? ORDER BY created_at ASC`, sourceID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "listing artifacts", err)
	}
	defer rows.Close()

	var out []*content.Artifact
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageUnavailable, "scanning artifact row", err)
		}
		var a content.Artifact
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageUnavailable, "unmarshaling artifact", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Brain sessions ----------------------------------------------------

// PutSession persists a Brain Session record, implementing
// brain.Sessions.
func (r *Repository) PutSession(ctx context.Context, s *brain.Session) error {
	userIDs, _ := json.Marshal(s.UserSourceIDs)
	primaryIDs, _ := json.Marshal(s.PrimarySourceIDs)
	supportingIDs, _ := json.Marshal(s.SupportingSourceIDs)
	matchedIDs, _ := json.Marshal(s.MatchedSourceIDs)
	scores, _ := json.Marshal(s.MatchedScores)
	contentIDs, _ := json.Marshal(s.GeneratedContentIDs)

	_, err := r.exec(ctx, `DELETE FROM brain_sessions WHERE id = ?`, s.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "replacing brain session", err)
	}
	_, err = r.exec(ctx,
		`INSERT INTO brain_sessions (id, mode, vision, user_source_ids, primary_source_ids, supporting_source_ids,
			matched_source_ids, matched_scores, chosen_count, rationale, generated_content_ids, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Mode), s.Vision, string(userIDs), string(primaryIDs), string(supportingIDs),
		string(matchedIDs), string(scores), s.ChosenCount, s.Rationale, string(contentIDs), s.Status,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "inserting brain session", err)
	}
	return nil
}

// GetSession fetches a Brain Session by id.
func (r *Repository) GetSession(ctx context.Context, id string) (*brain.Session, bool, error) {
	row := r.queryRow(ctx,
		`SELECT id, mode, vision, user_source_ids, primary_source_ids, supporting_source_ids,
			matched_source_ids, matched_scores, chosen_count, rationale, generated_content_ids, status
		 FROM brain_sessions WHERE id = ?`, id,
	)

	var (
		s                                                                       brain.Session
		mode                                                                    string
		userIDs, primaryIDs, supportingIDs, matchedIDs, scores, contentIDs      string
	)
	err := row.Scan(&s.ID, &mode, &s.Vision, &userIDs, &primaryIDs, &supportingIDs,
		&matchedIDs, &scores, &s.ChosenCount, &s.Rationale, &contentIDs, &s.Status)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindStorageUnavailable, "fetching brain session", err)
	}

	s.Mode = brain.Mode(mode)
	_ = json.Unmarshal([]byte(userIDs), &s.UserSourceIDs)
	_ = json.Unmarshal([]byte(primaryIDs), &s.PrimarySourceIDs)
	_ = json.Unmarshal([]byte(supportingIDs), &s.SupportingSourceIDs)
	_ = json.Unmarshal([]byte(matchedIDs), &s.MatchedSourceIDs)
	_ = json.Unmarshal([]byte(scores), &s.MatchedScores)
	_ = json.Unmarshal([]byte(contentIDs), &s.GeneratedContentIDs)
	return &s, true, nil
}
