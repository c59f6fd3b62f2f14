package indexer

import (
	"context"
	"fmt"
	"math/big"

	"dao-auction/internal/domain"
	"dao-auction/internal/infrastructure/chain"
	"dao-auction/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainSource is the slice of ethclient.Client the indexer needs.
type ChainSource interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type logHandler func(ctx context.Context, lg types.Log) error

// Indexer consumes auction house and governor logs and writes the entities
// they describe. Dispatch is driven entirely by the Mappings table.
type Indexer struct {
	source       ChainSource
	auctionRepo  domain.AuctionRepository
	bidRepo      domain.BidRepository
	govRepo      domain.GovernanceRepository
	cache        domain.QueryCache
	publisher    domain.EventPublisher
	log          logger.Logger
	chainID      int64
	tokenAddress string
	auctionHouse common.Address
	governor     common.Address
	dispatch     map[common.Hash]logHandler
	lastBlock    uint64
}

func New(
	source ChainSource,
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	govRepo domain.GovernanceRepository,
	cache domain.QueryCache,
	publisher domain.EventPublisher,
	chainID int64,
	tokenAddress, auctionHouseAddress, governorAddress string,
	log logger.Logger,
) (*Indexer, error) {
	idx := &Indexer{
		source:       source,
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		govRepo:      govRepo,
		cache:        cache,
		publisher:    publisher,
		log:          log,
		chainID:      chainID,
		tokenAddress: tokenAddress,
		auctionHouse: common.HexToAddress(auctionHouseAddress),
		governor:     common.HexToAddress(governorAddress),
	}

	if err := idx.buildDispatch(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Indexer) buildDispatch() error {
	registry := i.handlerRegistry()
	i.dispatch = make(map[common.Hash]logHandler, len(Mappings))

	for _, m := range Mappings {
		var contractABI abi.ABI
		switch m.Source {
		case SourceAuctionHouse:
			contractABI = chain.AuctionHouseABI()
		case SourceGovernor:
			contractABI = chain.GovernorABI()
		default:
			return fmt.Errorf("unknown data source %q", m.Source)
		}

		event, ok := contractABI.Events[m.Event]
		if !ok {
			return fmt.Errorf("event %s not in %s ABI", m.Event, m.Source)
		}
		handler, ok := registry[m.Handler]
		if !ok {
			return fmt.Errorf("handler %s for event %s not registered", m.Handler, m.Event)
		}

		i.dispatch[event.ID] = handler
	}
	return nil
}

// Run subscribes to contract logs and dispatches until the context ends or
// the subscription drops.
func (i *Indexer) Run(ctx context.Context) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{i.auctionHouse, i.governor},
	}

	logs := make(chan types.Log, 256)
	sub, err := i.source.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("subscribe to logs: %w", err)
	}
	defer sub.Unsubscribe()

	i.log.Info("Indexer started", "auction_house", i.auctionHouse.Hex(), "governor", i.governor.Hex())

	for {
		select {
		case lg := <-logs:
			if err := i.HandleLog(ctx, lg); err != nil {
				i.log.Error("Failed to index log", "block", lg.BlockNumber,
					"tx", lg.TxHash.Hex(), "error", err)
			}

		case err := <-sub.Err():
			return fmt.Errorf("log subscription dropped: %w", err)

		case <-ctx.Done():
			i.log.Info("Indexer stopped")
			return ctx.Err()
		}
	}
}

// HandleLog routes one log through the mapping table. Logs without a mapped
// topic are ignored.
func (i *Indexer) HandleLog(ctx context.Context, lg types.Log) error {
	if lg.Removed || len(lg.Topics) == 0 {
		return nil
	}

	handler, ok := i.dispatch[lg.Topics[0]]
	if !ok {
		return nil
	}

	if err := handler(ctx, lg); err != nil {
		return err
	}
	if lg.BlockNumber > i.lastBlock {
		i.lastBlock = lg.BlockNumber
	}
	return nil
}

// CatchUp re-reads a trailing block window and replays any logs the live
// subscription may have missed. Entity writes are idempotent, so replaying
// already-indexed logs is harmless.
func (i *Indexer) CatchUp(ctx context.Context, lookback uint64) error {
	head, err := i.source.BlockNumber(ctx)
	if err != nil {
		return err
	}

	from := i.lastBlock
	if from == 0 && head > lookback {
		from = head - lookback
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{i.auctionHouse, i.governor},
	}

	logs, err := i.source.FilterLogs(ctx, query)
	if err != nil {
		return err
	}

	for _, lg := range logs {
		if err := i.HandleLog(ctx, lg); err != nil {
			i.log.Error("Failed to replay log", "block", lg.BlockNumber, "error", err)
		}
	}
	return nil
}
