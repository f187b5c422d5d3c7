package repositories

import (
	"context"
	"time"

	"github.com/fellas-token/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.ChainTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TxStatusPending
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO chain_transactions (id, kind, token_id, quantity, metadata_uri, from_address, value_wei, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		RETURNING created_at, updated_at
	`, t.ID, t.Kind, t.TokenID, t.Quantity, t.MetadataURI, t.FromAddress, t.ValueWei, t.Status).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TransactionRepo) SetHash(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chain_transactions SET tx_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	return err
}

// Finish moves a pending transaction to its final status. Already finished
// rows are left alone.
func (r *TransactionRepo) Finish(ctx context.Context, id uuid.UUID, status string, block *int64, code, message *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chain_transactions SET
			status = $1, block_number = $2, error_code = $3, error_message = $4,
			confirmed_at = CASE WHEN $1 = 'confirmed' THEN now() ELSE NULL END,
			updated_at = now()
		WHERE id = $5 AND status = 'pending'
	`, status, block, code, message, id)
	return err
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChainTransaction, error) {
	rows, err := r.pool.Query(ctx, selectTx+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	txs, err := scanTxs(rows)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, ErrNotFound
	}
	return &txs[0], nil
}

// ListPending returns pending rows older than olderThan, oldest first.
func (r *TransactionRepo) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.ChainTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectTx+`
		WHERE status = 'pending' AND created_at < now() - make_interval(secs => $1)
		ORDER BY created_at LIMIT $2
	`, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	return scanTxs(rows)
}

func (r *TransactionRepo) ListRecent(ctx context.Context, limit int) ([]models.ChainTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, selectTx+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanTxs(rows)
}

const selectTx = `
	SELECT id, kind, token_id, quantity, metadata_uri, from_address, value_wei::text,
	       tx_hash, status, error_code, error_message, block_number,
	       created_at, updated_at, confirmed_at
	FROM chain_transactions`

type txRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanTxs(rows txRows) ([]models.ChainTransaction, error) {
	defer rows.Close()

	var txs []models.ChainTransaction
	for rows.Next() {
		var t models.ChainTransaction
		if err := rows.Scan(&t.ID, &t.Kind, &t.TokenID, &t.Quantity, &t.MetadataURI, &t.FromAddress, &t.ValueWei,
			&t.TxHash, &t.Status, &t.ErrorCode, &t.ErrorMessage, &t.BlockNumber,
			&t.CreatedAt, &t.UpdatedAt, &t.ConfirmedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
