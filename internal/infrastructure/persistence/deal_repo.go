package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/errcodes"
)

// rankBatchLimit bounds the ranks written by one UPDATE.
const rankBatchLimit = 500

const dealColumns = `
	id, source, category, sub_category, title, link, image_url, mall_name,
	current_price, previous_price, drop_rate, sale_end_date,
	feed_order, category_feed_order, updated_at`

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Upsert вставляет или обновляет сделки одной транзакцией.
// Ранги ленты не трогаем, их пишет только пересчёт; пустая категория не
// затирает уже проставленную.
func (r *DealRepository) Upsert(ctx context.Context, deals []entity.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO deals (
				id, source, category, sub_category, title, link, image_url, mall_name,
				current_price, previous_price, drop_rate, sale_end_date, updated_at
			) VALUES (
				:id, :source, :category, :sub_category, :title, :link, :image_url, :mall_name,
				:current_price, :previous_price, :drop_rate, :sale_end_date, :updated_at
			)
			ON CONFLICT (id) DO UPDATE SET
				source         = EXCLUDED.source,
				category       = COALESCE(NULLIF(EXCLUDED.category, ''), deals.category),
				sub_category   = COALESCE(NULLIF(EXCLUDED.sub_category, ''), deals.sub_category),
				title          = EXCLUDED.title,
				link           = EXCLUDED.link,
				image_url      = EXCLUDED.image_url,
				mall_name      = EXCLUDED.mall_name,
				current_price  = EXCLUDED.current_price,
				previous_price = EXCLUDED.previous_price,
				drop_rate      = EXCLUDED.drop_rate,
				sale_end_date  = EXCLUDED.sale_end_date,
				updated_at     = EXCLUDED.updated_at`)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to prepare deal upsert")
		}
		defer stmt.Close()

		for _, d := range deals {
			schema := fromDeal(d)
			if schema.UpdatedAt.IsZero() {
				schema.UpdatedAt = time.Now()
			}

			if _, err := stmt.ExecContext(ctx, schema); err != nil {
				return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert deal "+d.ID)
			}
		}

		return nil
	})
}

func (r *DealRepository) GetByID(ctx context.Context, id string) (entity.Deal, error) {
	var schema dealSchema

	if err := r.db.GetContext(ctx, &schema, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Deal{}, domain.NewError(errcodes.DealNotFound, "deal not found")
		}

		return entity.Deal{}, domain.WrapError(err, errcodes.InternalServerError, "failed to get deal")
	}

	return schema.toDomain(), nil
}

// ListEligible читает только поля, нужные для пересчёта ленты.
func (r *DealRepository) ListEligible(ctx context.Context, minDropRate float64) ([]entity.Deal, error) {
	var rows []dealSchema

	query := `SELECT id, source, category FROM deals WHERE drop_rate >= $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query, minDropRate); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list eligible deals")
	}

	return lo.Map(rows, func(s dealSchema, _ int) entity.Deal { return s.toDomain() }), nil
}

func (r *DealRepository) CountBySource(ctx context.Context, minDropRate float64) (map[value.Source]int, error) {
	var rows []struct {
		Source string `db:"source"`
		Count  int    `db:"count"`
	}

	query := `SELECT source, count(*) AS count FROM deals WHERE drop_rate >= $1 GROUP BY source`
	if err := r.db.SelectContext(ctx, &rows, query, minDropRate); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to count deals")
	}

	counts := make(map[value.Source]int, len(rows))
	for _, row := range rows {
		counts[entity.Deal{Source: value.Source(row.Source)}.SourceTag()] += row.Count
	}

	return counts, nil
}

// UpdateRanks заменяет ранги всей ленты одной транзакцией: сначала
// сбрасывает старые, затем пишет новые пачками по rankBatchLimit.
// При ошибке остаются ранги предыдущего пересчёта.
func (r *DealRepository) UpdateRanks(ctx context.Context, ranks []entity.FeedRank) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE deals
			SET feed_order = NULL, category_feed_order = NULL
			WHERE feed_order IS NOT NULL OR category_feed_order IS NOT NULL`)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to reset ranks")
		}

		for _, chunk := range lo.Chunk(ranks, rankBatchLimit) {
			ids := make([]string, len(chunk))
			orders := make([]int32, len(chunk))
			categoryOrders := make([]int32, len(chunk))

			for i, rank := range chunk {
				ids[i] = rank.DealID
				orders[i] = int32(rank.FeedOrder)                 //nolint:gosec // bounded by pool size
				categoryOrders[i] = int32(rank.CategoryFeedOrder) //nolint:gosec // bounded by pool size
			}

			_, err := tx.ExecContext(ctx, `
				UPDATE deals AS d
				SET feed_order = r.feed_order, category_feed_order = r.category_feed_order
				FROM unnest($1::text[], $2::int[], $3::int[]) AS r (id, feed_order, category_feed_order)
				WHERE d.id = r.id`,
				ids, orders, categoryOrders,
			)
			if err != nil {
				return domain.WrapError(err, errcodes.InternalServerError, "failed to write ranks")
			}
		}

		return nil
	})
}

func (r *DealRepository) Feed(ctx context.Context, page value.Page) ([]entity.Deal, error) {
	var rows []dealSchema

	query := `SELECT ` + dealColumns + ` FROM deals
		WHERE feed_order IS NOT NULL
		ORDER BY feed_order
		LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx, &rows, query, page.Limit, page.Offset); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to read feed")
	}

	return lo.Map(rows, func(s dealSchema, _ int) entity.Deal { return s.toDomain() }), nil
}

// CategoryFeed: пустая категория в базе отвечает скоупу "uncategorized".
func (r *DealRepository) CategoryFeed(ctx context.Context, category string, page value.Page) ([]entity.Deal, error) {
	var rows []dealSchema

	query := `SELECT ` + dealColumns + ` FROM deals
		WHERE category_feed_order IS NOT NULL
		  AND COALESCE(NULLIF(category, ''), $1) = $2
		ORDER BY category_feed_order
		LIMIT $3 OFFSET $4`

	err := r.db.SelectContext(ctx, &rows, query, value.CategoryUncategorized, category, page.Limit, page.Offset)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to read category feed")
	}

	return lo.Map(rows, func(s dealSchema, _ int) entity.Deal { return s.toDomain() }), nil
}

func (r *DealRepository) DeleteStale(ctx context.Context, updatedBefore time.Time, limit int) (int, error) {
	return r.deleteBatch(ctx, `
		DELETE FROM deals WHERE id IN (
			SELECT id FROM deals WHERE updated_at < $1 LIMIT $2
		)`, updatedBefore, limit)
}

func (r *DealRepository) DeleteEnded(ctx context.Context, now time.Time, limit int) (int, error) {
	return r.deleteBatch(ctx, `
		DELETE FROM deals WHERE id IN (
			SELECT id FROM deals WHERE sale_end_date IS NOT NULL AND sale_end_date < $1 LIMIT $2
		)`, now, limit)
}

func (r *DealRepository) deleteBatch(ctx context.Context, query string, at time.Time, limit int) (int, error) {
	res, err := r.db.ExecContext(ctx, query, at, limit)
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to delete deals")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to count deleted deals")
	}

	return int(rows), nil
}
