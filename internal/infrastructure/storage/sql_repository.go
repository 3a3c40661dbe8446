package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/ports"
)

// MaxListLimit caps ListRecent regardless of the requested limit.
const MaxListLimit = 100

const articlesTable = "articles"

// ErrInvalidArticle is returned when title or url is blank.
var ErrInvalidArticle = errors.New("article title and url must be non-empty")

type dialect struct {
	driver      string
	placeholder sq.PlaceholderFormat
	schema      []string
}

var (
	postgresDialect = dialect{
		driver:      "postgres",
		placeholder: sq.Dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS articles (
				id          BIGSERIAL PRIMARY KEY,
				title       TEXT NOT NULL,
				url         TEXT NOT NULL UNIQUE,
				detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_detected_at ON articles (detected_at DESC, id DESC)`,
		},
	}
	sqliteDialect = dialect{
		driver:      "sqlite",
		placeholder: sq.Question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS articles (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				title       TEXT NOT NULL,
				url         TEXT NOT NULL UNIQUE,
				detected_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_detected_at ON articles (detected_at DESC, id DESC)`,
		},
	}
)

// SQLRepository persists tragedy matches into Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.ArticleRepository = (*SQLRepository)(nil)

// Option customizes a SQLRepository.
type Option func(*SQLRepository)

// WithClock overrides the clock used for detected_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// Open connects to databaseURL and creates the schema when missing.
// postgres:// and postgresql:// URLs use the pq driver; sqlite:///rel.db,
// sqlite:////abs.db, file: URIs and bare paths use SQLite.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*SQLRepository, error) {
	d, dsn, err := resolveDSN(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// SQLite allows one writer; a single connection also keeps :memory: coherent.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	repo := newSQLRepository(db, d, opts...)
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// newSQLRepository wires an already opened sql.DB for the given dialect.
func newSQLRepository(db *sql.DB, d dialect, opts ...Option) *SQLRepository {
	r := &SQLRepository{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Driver names the database/sql driver in use.
func (r *SQLRepository) Driver() string {
	return r.dialect.driver
}

// Close releases the underlying connection pool.
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveIfNew inserts the article unless its URL is already stored. The insert
// and the uniqueness decision happen in one statement, so concurrent callers
// on the same URL see exactly one Created result.
func (r *SQLRepository) SaveIfNew(ctx context.Context, title, url string) (domain.SaveResult, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(url) == "" {
		return domain.SaveResult{}, ErrInvalidArticle
	}

	detectedAt := r.now().UTC().Truncate(time.Microsecond)

	query, args, err := r.builder.
		Insert(articlesTable).
		Columns("title", "url", "detected_at").
		Values(title, url, detectedAt).
		Suffix("ON CONFLICT (url) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SaveResult{Created: false}, nil
	}
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("insert article: %w", err)
	}

	return domain.SaveResult{
		Created: true,
		Article: domain.Article{
			ID:         id,
			Title:      title,
			URL:        url,
			DetectedAt: detectedAt,
		},
	}, nil
}

// ListRecent returns up to min(limit, MaxListLimit) articles, newest first.
func (r *SQLRepository) ListRecent(ctx context.Context, limit int) ([]domain.Article, error) {
	limit = ClampLimit(limit)
	if limit == 0 {
		return []domain.Article{}, nil
	}

	query, args, err := r.builder.
		Select("id", "title", "url", "detected_at").
		From(articlesTable).
		OrderBy("detected_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	articles := make([]domain.Article, 0, limit)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.DetectedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.DetectedAt = a.DetectedAt.UTC()
		articles = append(articles, a)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}

// Count returns the total number of stored articles.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// ClampLimit bounds a requested list size to [0, MaxListLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 0
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func resolveDSN(raw string) (dialect, string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return dialect{}, "", fmt.Errorf("database url is empty")
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return postgresDialect, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite://"), "/")
		if path == "" {
			path = ":memory:"
		}
		dsn, err := sqliteDSN(path)
		return sqliteDialect, dsn, err
	case strings.Contains(raw, "://"):
		return dialect{}, "", fmt.Errorf("unsupported database url scheme: %s", raw)
	default:
		dsn, err := sqliteDSN(raw)
		return sqliteDialect, dsn, err
	}
}

// sqliteDSN creates the parent directory for file databases and pins the
// driver's time format so detected_at sorts lexically.
func sqliteDSN(path string) (string, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create store dir: %w", err)
			}
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite", nil
}
