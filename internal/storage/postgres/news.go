package postgres

import (
	"context"
	"errors"
	"fmt"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"news_ticker/internal/domain"
)

// MaxNewsResults caps every GetNews result.
const MaxNewsResults = 100

// ErrConstraint wraps integrity violations (SQLSTATE class 23).
var ErrConstraint = errors.New("constraint violation")

var newsColumns = []string{
	"id", "title", "link", "description", "thumbnail", "source", "published_at", "fetched_at",
}

type NewsStore struct {
	db *sqlx.DB
}

func NewNewsStore(db *sqlx.DB) *NewsStore {
	return &NewsStore{db: db}
}

type upsertRow struct {
	domain.NewsItem
	Inserted bool `db:"inserted"`
}

// Upsert inserts the candidate or, when its link already exists, updates
// title, description, published_at and fetched_at in place.
func (s *NewsStore) Upsert(ctx context.Context, c domain.NewsCandidate) (domain.UpsertedItem, error) {
	query := `
		INSERT INTO news_items (
			title, link, description, thumbnail, source, published_at, fetched_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, now()
		)
		ON CONFLICT (link) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			published_at = EXCLUDED.published_at,
			fetched_at = now()
		RETURNING id, title, link, description, thumbnail, source, published_at, fetched_at,
			(xmax = 0) AS inserted`

	var row upsertRow
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		c.Title,
		c.Link,
		c.Description,
		c.Thumbnail,
		c.Source,
		c.PublishedAt,
	).StructScan(&row)
	if err != nil {
		return domain.UpsertedItem{}, classify(err)
	}

	return domain.UpsertedItem{Item: row.NewsItem, Inserted: row.Inserted}, nil
}

// SyncNewsItems upserts candidates one statement at a time. It stops at the
// first failure; rows written before it are kept and counted.
func (s *NewsStore) SyncNewsItems(ctx context.Context, candidates []domain.NewsCandidate) (domain.UpsertResult, error) {
	var result domain.UpsertResult
	if len(candidates) == 0 {
		return result, nil
	}

	result.Items = make([]domain.UpsertedItem, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return result, fmt.Errorf("upsert %q: %w", c.Link, err)
		}

		item, err := s.Upsert(ctx, c)
		if err != nil {
			return result, fmt.Errorf("upsert %q: %w", c.Link, err)
		}

		result.Items = append(result.Items, item)
		if item.Inserted {
			result.New++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

// GetNews returns at most MaxNewsResults items ordered by published_at
// descending with nulls last. A non-empty sources slice restricts the
// result to those tags.
func (s *NewsStore) GetNews(ctx context.Context, sources []string) ([]domain.NewsItem, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(newsColumns...).From("news_items")
	if len(sources) > 0 {
		sb.Where(sb.In("source", sqlbuilder.Flatten(sources)...))
	}
	sb.OrderBy("published_at DESC NULLS LAST", "id DESC")
	sb.Limit(MaxNewsResults)

	query, args := sb.Build()

	items := make([]domain.NewsItem, 0)
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("select news: %w", err)
	}

	return items, nil
}

func (s *NewsStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w %s: %w", ErrConstraint, pqErr.Constraint, err)
	}
	return err
}
