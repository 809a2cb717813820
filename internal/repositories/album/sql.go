package album

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/pkg/logger"
)

const table = "albums"

var columns = []string{
	"id", "title", "query_type", "tags", "users", "tag_mode", "photo_limit", "enabled",
	"interval_ms", "last_checked_at", "backoff_until", "since_id", "max_id", "retry_count",
	"last_error", "created_at", "updated_at",
}

type row struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	QueryType     string         `db:"query_type"`
	Tags          string         `db:"tags"`
	Users         string         `db:"users"`
	TagMode       string         `db:"tag_mode"`
	Limit         int            `db:"photo_limit"`
	Enabled       bool           `db:"enabled"`
	IntervalMs    int64          `db:"interval_ms"`
	LastCheckedAt sql.NullTime   `db:"last_checked_at"`
	BackoffUntil  sql.NullTime   `db:"backoff_until"`
	SinceID       sql.NullString `db:"since_id"`
	MaxID         sql.NullString `db:"max_id"`
	RetryCount    int            `db:"retry_count"`
	LastError     sql.NullString `db:"last_error"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type SQL struct {
	db     *sqlx.DB
	logger logger.Logger
	now    func() time.Time
}

func NewSQL(db *sqlx.DB, logger logger.Logger) *SQL {
	return &SQL{
		db:     db,
		logger: logger.WithComponent("AlbumRepo"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ Repository = (*SQL)(nil)

// Create stores a new album and returns it with timestamps filled in
func (s *SQL) Create(ctx context.Context, album domain.Album) (domain.Album, error) {
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	album.Limit = domain.ClampLimit(album.Limit)
	if err := album.Validate(); err != nil {
		return domain.Album{}, err
	}
	now := s.now()
	album.CreatedAt, album.UpdatedAt = now, now

	r, err := toRow(album)
	if err != nil {
		return domain.Album{}, err
	}

	query, args, err := repositories.SqBuilder.
		Insert(table).
		Columns(columns...).
		Values(r.values()...).
		ToSql()
	if err != nil {
		return domain.Album{}, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	if _, err := conn.ExecContext(ctx, conn.Rebind(query), args...); err != nil {
		if repositories.IsUniqueViolation(err) {
			return domain.Album{}, ErrAlreadyExists
		}
		return domain.Album{}, fmt.Errorf("insert album: %w", err)
	}

	s.logger.Info("Album created", "album_id", album.ID, "type", album.Query.Type())
	return album, nil
}

// Get returns one album by id
func (s *SQL) Get(ctx context.Context, id string) (domain.Album, error) {
	query, args, err := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Album{}, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	var r row
	if err := conn.GetContext(ctx, &r, conn.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Album{}, ErrNotFound
		}
		return domain.Album{}, fmt.Errorf("get album: %w", err)
	}
	return r.toDomain()
}

// List returns a page of albums ordered by creation time, plus the total
func (s *SQL) List(ctx context.Context, opts ListOptions) ([]domain.Album, int, error) {
	where := sq.And{}
	if opts.Enabled != nil {
		where = append(where, sq.Eq{"enabled": *opts.Enabled})
	}

	countQuery, countArgs, err := repositories.SqBuilder.
		Select("COUNT(*)").
		From(table).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, repositories.ErrBadQuery
	}

	builder := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at ASC", "id ASC")
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		builder = builder.Offset(uint64(opts.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)

	var total int
	if err := conn.GetContext(ctx, &total, conn.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count albums: %w", err)
	}

	var rows []row
	if err := conn.SelectContext(ctx, &rows, conn.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list albums: %w", err)
	}

	albums := make([]domain.Album, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, 0, err
		}
		albums = append(albums, a)
	}
	return albums, total, nil
}

// Update merges patch onto the stored album. Only the columns the patch
// sets are written, so concurrent writers of other fields are never undone.
func (s *SQL) Update(ctx context.Context, id string, patch domain.AlbumPatch) (domain.Album, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Album{}, err
	}

	updated := current.Apply(patch)
	if err := updated.Validate(); err != nil {
		return domain.Album{}, err
	}
	updated.UpdatedAt = s.now()

	if err := s.write(ctx, id, updated, patch); err != nil {
		return domain.Album{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQL) write(ctx context.Context, id string, updated domain.Album, patch domain.AlbumPatch) error {
	r, err := toRow(updated)
	if err != nil {
		return err
	}

	query, args, err := repositories.SqBuilder.
		Update(table).
		SetMap(r.changed(patch)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the album and its membership rows
func (s *SQL) Delete(ctx context.Context, id string) error {
	itemsQuery, itemsArgs, err := repositories.SqBuilder.
		Delete("album_items").
		Where(sq.Eq{"album_id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}
	query, args, err := repositories.SqBuilder.
		Delete(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	conn := repositories.Conn(ctx, s.db)
	if _, err := conn.ExecContext(ctx, conn.Rebind(itemsQuery), itemsArgs...); err != nil {
		return fmt.Errorf("delete album items: %w", err)
	}
	res, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Info("Album deleted", "album_id", id)
	return nil
}

func toRow(a domain.Album) (row, error) {
	tags, users, mode := domain.QueryParts(a.Query)
	if tags == nil {
		tags = []string{}
	}
	if users == nil {
		users = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return row{}, fmt.Errorf("encode tags: %w", err)
	}
	usersJSON, err := json.Marshal(users)
	if err != nil {
		return row{}, fmt.Errorf("encode users: %w", err)
	}
	if mode == "" {
		mode = domain.TagModeAny
	}

	return row{
		ID:            a.ID,
		Title:         a.Title,
		QueryType:     string(a.Query.Type()),
		Tags:          string(tagsJSON),
		Users:         string(usersJSON),
		TagMode:       string(mode),
		Limit:         a.Limit,
		Enabled:       a.Enabled,
		IntervalMs:    a.Refresh.Interval.Milliseconds(),
		LastCheckedAt: nullTime(a.Refresh.LastCheckedAt),
		BackoffUntil:  nullTime(a.Refresh.BackoffUntil),
		SinceID:       nullString(a.Refresh.SinceID),
		MaxID:         nullString(a.Refresh.MaxID),
		RetryCount:    a.Refresh.RetryCount,
		LastError:     nullString(a.Refresh.LastError),
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}, nil
}

// values follows the order of columns.
func (r row) values() []interface{} {
	return []interface{}{
		r.ID, r.Title, r.QueryType, r.Tags, r.Users, r.TagMode, r.Limit, r.Enabled,
		r.IntervalMs, r.LastCheckedAt, r.BackoffUntil, r.SinceID, r.MaxID, r.RetryCount,
		r.LastError, r.CreatedAt, r.UpdatedAt,
	}
}

// changed returns the columns touched by patch, plus updated_at.
func (r row) changed(patch domain.AlbumPatch) map[string]interface{} {
	m := map[string]interface{}{"updated_at": r.UpdatedAt}
	if patch.Title != nil {
		m["title"] = r.Title
	}
	if patch.Query != nil {
		m["query_type"] = r.QueryType
		m["tags"] = r.Tags
		m["users"] = r.Users
		m["tag_mode"] = r.TagMode
	}
	if patch.Limit != nil {
		m["photo_limit"] = r.Limit
	}
	if patch.Enabled != nil {
		m["enabled"] = r.Enabled
	}

	rp := patch.Refresh
	if rp == nil {
		return m
	}
	if rp.Interval != nil {
		m["interval_ms"] = r.IntervalMs
	}
	if rp.LastCheckedAt != nil {
		m["last_checked_at"] = r.LastCheckedAt
	}
	if rp.BackoffUntil != nil || rp.ClearBackoff {
		m["backoff_until"] = r.BackoffUntil
	}
	if rp.SinceID != nil {
		m["since_id"] = r.SinceID
	}
	if rp.MaxID != nil {
		m["max_id"] = r.MaxID
	}
	if rp.RetryCount != nil {
		m["retry_count"] = r.RetryCount
	}
	if rp.LastError != nil {
		m["last_error"] = r.LastError
	}
	return m
}

func (r row) toDomain() (domain.Album, error) {
	var tags, users []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return domain.Album{}, fmt.Errorf("decode tags of album %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Users), &users); err != nil {
		return domain.Album{}, fmt.Errorf("decode users of album %s: %w", r.ID, err)
	}

	var q domain.Query
	switch domain.QueryType(r.QueryType) {
	case domain.QueryTypeTag:
		q = domain.TagQuery{Tags: tags, Mode: domain.TagMode(r.TagMode)}
	case domain.QueryTypeUser:
		q = domain.UserQuery{Users: users}
	case domain.QueryTypeCompound:
		q = domain.CompoundQuery{Tags: tags, Users: users, Mode: domain.TagMode(r.TagMode)}
	default:
		return domain.Album{}, fmt.Errorf("album %s has unknown query type %q", r.ID, r.QueryType)
	}

	return domain.Album{
		ID:      r.ID,
		Title:   r.Title,
		Query:   q,
		Limit:   domain.ClampLimit(r.Limit),
		Enabled: r.Enabled,
		Refresh: domain.RefreshState{
			Interval:      time.Duration(r.IntervalMs) * time.Millisecond,
			LastCheckedAt: timePtr(r.LastCheckedAt),
			BackoffUntil:  timePtr(r.BackoffUntil),
			SinceID:       r.SinceID.String,
			MaxID:         r.MaxID.String,
			RetryCount:    r.RetryCount,
			LastError:     r.LastError.String,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
