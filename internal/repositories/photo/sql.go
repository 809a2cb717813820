package photo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/orgball2608/fedi-albums/pkg/normalize"
)

const table = "photos"

var columns = []string{
	"status_id", "created_at", "author_id", "author_handle", "author_username",
	"author_display_name", "author_avatar_url", "caption_html", "post_url", "tags",
	"url", "preview_url", "fetched_at",
}

type row struct {
	StatusID          string    `db:"status_id"`
	CreatedAt         time.Time `db:"created_at"`
	AuthorID          string    `db:"author_id"`
	AuthorHandle      string    `db:"author_handle"`
	AuthorUsername    string    `db:"author_username"`
	AuthorDisplayName string    `db:"author_display_name"`
	AuthorAvatarURL   string    `db:"author_avatar_url"`
	CaptionHTML       string    `db:"caption_html"`
	PostURL           string    `db:"post_url"`
	Tags              string    `db:"tags"`
	URL               string    `db:"url"`
	PreviewURL        string    `db:"preview_url"`
	FetchedAt         time.Time `db:"fetched_at"`
}

type SQL struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewSQL(db *sqlx.DB, logger logger.Logger) *SQL {
	return &SQL{
		db:     db,
		logger: logger.WithComponent("PhotoRepo"),
	}
}

var _ Repository = (*SQL)(nil)

// upsertSuffix overwrites every stored field except the key.
const upsertSuffix = `ON CONFLICT (status_id) DO UPDATE SET
	created_at = excluded.created_at,
	author_id = excluded.author_id,
	author_handle = excluded.author_handle,
	author_username = excluded.author_username,
	author_display_name = excluded.author_display_name,
	author_avatar_url = excluded.author_avatar_url,
	caption_html = excluded.caption_html,
	post_url = excluded.post_url,
	tags = excluded.tags,
	url = excluded.url,
	preview_url = excluded.preview_url,
	fetched_at = excluded.fetched_at`

// Upsert inserts or replaces photos by status id. Tags are normalized and
// records without an id are skipped. Later duplicates in the batch win.
func (s *SQL) Upsert(ctx context.Context, photos []domain.Photo) ([]string, error) {
	conn := repositories.Conn(ctx, s.db)
	ids := make([]string, 0, len(photos))
	seen := make(map[string]struct{}, len(photos))

	for _, p := range photos {
		if p.StatusID == "" {
			s.logger.Debug("Skipping photo without status id", "post_url", p.PostURL)
			continue
		}
		r, err := toRow(p)
		if err != nil {
			return nil, err
		}

		query, args, err := repositories.SqBuilder.
			Insert(table).
			Columns(columns...).
			Values(r.values()...).
			Suffix(upsertSuffix).
			ToSql()
		if err != nil {
			return nil, repositories.ErrBadQuery
		}
		if _, err := conn.ExecContext(ctx, conn.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("upsert photo %s: %w", p.StatusID, err)
		}

		if _, ok := seen[p.StatusID]; !ok {
			seen[p.StatusID] = struct{}{}
			ids = append(ids, p.StatusID)
		}
	}
	return ids, nil
}

// LinkAlbum inserts membership edges, ignoring ones that already exist
func (s *SQL) LinkAlbum(ctx context.Context, albumID string, statusIDs []string, addedAt time.Time) (int, error) {
	conn := repositories.Conn(ctx, s.db)
	inserted := 0
	for _, id := range statusIDs {
		query, args, err := repositories.SqBuilder.
			Insert("album_items").
			Columns("album_id", "status_id", "added_at").
			Values(albumID, id, addedAt.UTC()).
			Suffix("ON CONFLICT (album_id, status_id) DO NOTHING").
			ToSql()
		if err != nil {
			return 0, repositories.ErrBadQuery
		}
		res, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
		if err != nil {
			return 0, fmt.Errorf("link photo %s to album %s: %w", id, albumID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// ListByAlbum returns album photos newest-added first, plus the total
func (s *SQL) ListByAlbum(ctx context.Context, albumID string, page Page) ([]domain.Photo, int, error) {
	countQuery, countArgs, err := repositories.SqBuilder.
		Select("COUNT(*)").
		From("album_items").
		Where(sq.Eq{"album_id": albumID}).
		ToSql()
	if err != nil {
		return nil, 0, repositories.ErrBadQuery
	}

	selected := make([]string, len(columns))
	for i, c := range columns {
		selected[i] = "p." + c
	}
	builder := repositories.SqBuilder.
		Select(selected...).
		From("album_items ai").
		Join("photos p ON p.status_id = ai.status_id").
		Where(sq.Eq{"ai.album_id": albumID}).
		OrderBy("ai.added_at DESC", "p.created_at DESC", "p.status_id DESC")
	if page.Limit > 0 {
		builder = builder.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		builder = builder.Offset(uint64(page.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)

	var total int
	if err := conn.GetContext(ctx, &total, conn.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count album photos: %w", err)
	}

	var rows []row
	if err := conn.SelectContext(ctx, &rows, conn.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list album photos: %w", err)
	}

	photos := make([]domain.Photo, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, 0, err
		}
		photos = append(photos, p)
	}
	return photos, total, nil
}

// Get returns one photo by status id
func (s *SQL) Get(ctx context.Context, statusID string) (domain.Photo, error) {
	query, args, err := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"status_id": statusID}).
		ToSql()
	if err != nil {
		return domain.Photo{}, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	var r row
	if err := conn.GetContext(ctx, &r, conn.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Photo{}, ErrNotFound
		}
		return domain.Photo{}, fmt.Errorf("get photo: %w", err)
	}
	return r.toDomain()
}

// RemoveUnreferenced deletes photos that belong to no album
func (s *SQL) RemoveUnreferenced(ctx context.Context) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Delete(table).
		Where("NOT EXISTS (SELECT 1 FROM album_items ai WHERE ai.status_id = photos.status_id)").
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("remove unreferenced photos: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	s.logger.Info("Removed unreferenced photos", "count", n)
	return n, nil
}

func toRow(p domain.Photo) (row, error) {
	tags, err := json.Marshal(normalize.Tags(p.Tags))
	if err != nil {
		return row{}, fmt.Errorf("encode tags of photo %s: %w", p.StatusID, err)
	}
	return row{
		StatusID:          p.StatusID,
		CreatedAt:         p.CreatedAt.UTC(),
		AuthorID:          p.Author.ID,
		AuthorHandle:      p.Author.Handle,
		AuthorUsername:    p.Author.Username,
		AuthorDisplayName: p.Author.DisplayName,
		AuthorAvatarURL:   p.Author.AvatarURL,
		CaptionHTML:       p.CaptionHTML,
		PostURL:           p.PostURL,
		Tags:              string(tags),
		URL:               p.URL,
		PreviewURL:        p.PreviewURL,
		FetchedAt:         p.FetchedAt.UTC(),
	}, nil
}

func (r row) values() []interface{} {
	return []interface{}{
		r.StatusID, r.CreatedAt, r.AuthorID, r.AuthorHandle, r.AuthorUsername,
		r.AuthorDisplayName, r.AuthorAvatarURL, r.CaptionHTML, r.PostURL, r.Tags,
		r.URL, r.PreviewURL, r.FetchedAt,
	}
}

func (r row) toDomain() (domain.Photo, error) {
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return domain.Photo{}, fmt.Errorf("decode tags of photo %s: %w", r.StatusID, err)
	}
	return domain.Photo{
		StatusID:  r.StatusID,
		CreatedAt: r.CreatedAt.UTC(),
		Author: domain.Author{
			ID:          r.AuthorID,
			Handle:      r.AuthorHandle,
			Username:    r.AuthorUsername,
			DisplayName: r.AuthorDisplayName,
			AvatarURL:   r.AuthorAvatarURL,
		},
		CaptionHTML: r.CaptionHTML,
		PostURL:     r.PostURL,
		Tags:        tags,
		URL:         r.URL,
		PreviewURL:  r.PreviewURL,
		FetchedAt:   r.FetchedAt.UTC(),
	}, nil
}
