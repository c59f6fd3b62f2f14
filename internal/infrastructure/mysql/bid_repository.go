package mysql

import (
	"context"
	"database/sql"

	"dao-auction/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) SaveBid(ctx context.Context, bid *domain.Bid) error {
	// Replays of already-indexed blocks hit the tx_hash unique key.
	query := `
        INSERT IGNORE INTO bids (id, chain_id, token_address, token_id, bidder, amount,
                                 extended, tx_hash, block_number, bid_time)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.ChainID, bid.TokenAddress, bid.TokenID, bid.Bidder, bid.Amount,
		bid.Extended, bid.TxHash, bid.BlockNumber, bid.BidTime)
	return err
}

func (r *MySQLBidRepository) RecentBids(ctx context.Context, chainID int64, tokenAddress, tokenID string, limit int) ([]*domain.Bid, error) {
	query := `
        SELECT id, chain_id, token_address, token_id, bidder, amount,
               extended, tx_hash, block_number, bid_time
        FROM bids
        WHERE chain_id = ? AND token_address = ? AND token_id = ?
        ORDER BY block_number DESC, bid_time DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, chainID, tokenAddress, tokenID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.ChainID, &bid.TokenAddress, &bid.TokenID,
			&bid.Bidder, &bid.Amount, &bid.Extended, &bid.TxHash,
			&bid.BlockNumber, &bid.BidTime)
		if err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}
