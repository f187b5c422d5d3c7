package repositories

import (
	"context"

	"github.com/fellas-token/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// UpsertMinted records a mint. Replaying the same token is a no-op; the
// returned flag is true only for the first insert.
func (r *TokenRepo) UpsertMinted(ctx context.Context, t models.MintedToken) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO tokens (token_id, metadata_uri, owner, tx_hash, block_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, int64(t.TokenID), t.MetadataURI, t.Owner, t.TxHash, int64(t.BlockNumber))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MintedURIs returns every metadata URI known to be minted.
func (r *TokenRepo) MintedURIs(ctx context.Context) (map[string]models.MintedToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token_id, metadata_uri, owner, tx_hash, block_number, minted_at
		FROM tokens ORDER BY token_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.MintedToken)
	for rows.Next() {
		var (
			t        models.MintedToken
			id, blck int64
		)
		if err := rows.Scan(&id, &t.MetadataURI, &t.Owner, &t.TxHash, &blck, &t.MintedAt); err != nil {
			return nil, err
		}
		t.TokenID, t.BlockNumber = uint64(id), uint64(blck)
		out[t.MetadataURI] = t
	}
	return out, rows.Err()
}
