package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"dao-auction/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) UpsertAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, chain_id, token_address, token_id, start_time, end_time,
                              highest_bid, highest_bidder, settled, winner, winning_bid,
                              created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            end_time = VALUES(end_time),
            highest_bid = VALUES(highest_bid),
            highest_bidder = VALUES(highest_bidder),
            settled = VALUES(settled),
            winner = VALUES(winner),
            winning_bid = VALUES(winning_bid),
            updated_at = VALUES(updated_at)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.ChainID, auction.TokenAddress, auction.TokenID,
		auction.StartTime, auction.EndTime, auction.HighestBid, auction.HighestBidder,
		auction.Settled, auction.Winner, auction.WinningBid,
		auction.CreatedAt, auction.UpdatedAt)
	return err
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, chainID int64, tokenAddress, tokenID string) (*domain.Auction, error) {
	query := `
        SELECT id, chain_id, token_address, token_id, start_time, end_time,
               highest_bid, highest_bidder, settled, winner, winning_bid,
               created_at, updated_at
        FROM auctions
        WHERE chain_id = ? AND token_address = ? AND token_id = ?
    `

	var auction domain.Auction
	err := r.db.QueryRowContext(ctx, query, chainID, tokenAddress, tokenID).Scan(
		&auction.ID, &auction.ChainID, &auction.TokenAddress, &auction.TokenID,
		&auction.StartTime, &auction.EndTime, &auction.HighestBid, &auction.HighestBidder,
		&auction.Settled, &auction.Winner, &auction.WinningBid,
		&auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &auction, nil
}

func (r *MySQLAuctionRepository) SettleAuction(ctx context.Context, chainID int64, tokenAddress, tokenID, winner, amount string) error {
	query := `
        UPDATE auctions
        SET settled = 1, winner = ?, winning_bid = ?, updated_at = ?
        WHERE chain_id = ? AND token_address = ? AND token_id = ?
    `
	_, err := r.db.ExecContext(ctx, query, winner, amount, time.Now(), chainID, tokenAddress, tokenID)
	return err
}

func (r *MySQLAuctionRepository) AverageWinningBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	query := `
        SELECT CAST(FLOOR(AVG(CAST(winning_bid AS DECIMAL(65, 0)))) AS CHAR)
        FROM auctions
        WHERE chain_id = ? AND token_address = ? AND settled = 1 AND winning_bid <> ''
    `

	var avg sql.NullString
	if err := r.db.QueryRowContext(ctx, query, chainID, tokenAddress).Scan(&avg); err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}

	value, ok := new(big.Int).SetString(avg.String, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt average winning bid: %q", avg.String)
	}
	return value, nil
}
