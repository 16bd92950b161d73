package quotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/cotacao/internal/platform/db"
)

// Repository stores quotations as jsonb documents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	Load(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a read-committed transaction. Load locks the row
// so concurrent saves of one quotation serialise.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get returns the stored record of a quotation.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT documento FROM cotacoes WHERE id=$1`, id))
}

// List returns quotation headers, most recently updated first.
func (r *Repository) List(ctx context.Context, status Status, limit int) ([]Header, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT documento->'cotacao' FROM cotacoes
WHERE ($1 = '' OR status = $1)
ORDER BY atualizado_em DESC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Header
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var h Header
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decode cotacao header: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (t *txRepo) Load(ctx context.Context, id string) (Record, error) {
	return scanRecord(t.tx.QueryRow(ctx, `SELECT documento FROM cotacoes WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepo) Insert(ctx context.Context, rec Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO cotacoes (id, numero, status, versao, documento, atualizado_em)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Header.ID, rec.Header.Number, string(rec.Header.Status), rec.Header.Version, doc, rec.Header.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: numero %s already used", ErrValidation, rec.Header.Number)
	}
	return err
}

func (t *txRepo) Update(ctx context.Context, rec Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE cotacoes SET status=$2, versao=$3, documento=$4, atualizado_em=$5 WHERE id=$1`,
		rec.Header.ID, string(rec.Header.Status), rec.Header.Version, doc, rec.Header.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode cotacao: %w", err)
	}
	return rec, nil
}
