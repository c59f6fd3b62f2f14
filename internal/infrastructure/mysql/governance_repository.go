package mysql

import (
	"context"
	"database/sql"
	"time"

	"dao-auction/internal/domain"
)

type MySQLGovernanceRepository struct {
	db *sql.DB
}

func NewMySQLGovernanceRepository(db *sql.DB) *MySQLGovernanceRepository {
	return &MySQLGovernanceRepository{db: db}
}

func (r *MySQLGovernanceRepository) SaveProposal(ctx context.Context, proposal *domain.Proposal) error {
	query := `
        INSERT INTO proposals (id, chain_id, proposer, description, status,
                               start_block, end_block, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            status = VALUES(status),
            updated_at = VALUES(updated_at)
    `
	_, err := r.db.ExecContext(ctx, query,
		proposal.ID, proposal.ChainID, proposal.Proposer, proposal.Description,
		string(proposal.Status), proposal.StartBlock, proposal.EndBlock,
		proposal.CreatedAt, proposal.UpdatedAt)
	return err
}

func (r *MySQLGovernanceRepository) UpdateProposalStatus(ctx context.Context, chainID int64, proposalID string, status domain.ProposalStatus) error {
	query := `UPDATE proposals SET status = ?, updated_at = ? WHERE chain_id = ? AND id = ?`
	_, err := r.db.ExecContext(ctx, query, string(status), time.Now(), chainID, proposalID)
	return err
}

func (r *MySQLGovernanceRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	query := `
        INSERT IGNORE INTO votes (id, chain_id, proposal_id, voter, support, weight, reason, cast_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		vote.ID, vote.ChainID, vote.ProposalID, vote.Voter,
		vote.Support, vote.Weight, vote.Reason, vote.CastAt)
	return err
}
