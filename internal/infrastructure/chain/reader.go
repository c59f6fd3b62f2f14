package chain

import (
	"context"
	"fmt"
	"math/big"

	"dao-auction/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// AuctionHouseReader reads auction parameters from the auction house contract.
// Both values go out in one JSON-RPC batch and come back positionally.
type AuctionHouseReader struct {
	rpc     *rpc.Client
	address common.Address
}

func NewAuctionHouseReader(rpcClient *rpc.Client, address string) *AuctionHouseReader {
	return &AuctionHouseReader{
		rpc:     rpcClient,
		address: common.HexToAddress(address),
	}
}

func (r *AuctionHouseReader) AuctionParams(ctx context.Context) (*domain.AuctionParams, error) {
	reserveInput, err := auctionHouseABI.Pack("reservePrice")
	if err != nil {
		return nil, err
	}
	incrementInput, err := auctionHouseABI.Pack("minBidIncrement")
	if err != nil {
		return nil, err
	}

	var reserveRaw, incrementRaw hexutil.Bytes
	batch := []rpc.BatchElem{
		{
			Method: "eth_call",
			Args:   []interface{}{r.callArgs(reserveInput), "latest"},
			Result: &reserveRaw,
		},
		{
			Method: "eth_call",
			Args:   []interface{}{r.callArgs(incrementInput), "latest"},
			Result: &incrementRaw,
		},
	}

	if err := r.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("auction params batch call: %w", err)
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return nil, fmt.Errorf("auction params call %s: %w", elem.Method, elem.Error)
		}
	}

	reserveVals, err := auctionHouseABI.Unpack("reservePrice", reserveRaw)
	if err != nil {
		return nil, err
	}
	incrementVals, err := auctionHouseABI.Unpack("minBidIncrement", incrementRaw)
	if err != nil {
		return nil, err
	}

	reserve, ok := reserveVals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected reservePrice type %T", reserveVals[0])
	}
	increment, ok := incrementVals[0].(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected minBidIncrement type %T", incrementVals[0])
	}

	return &domain.AuctionParams{
		ReservePrice:       reserve,
		MinBidIncrementPct: increment,
	}, nil
}

func (r *AuctionHouseReader) callArgs(input []byte) map[string]interface{} {
	return map[string]interface{}{
		"to":   r.address,
		"data": hexutil.Bytes(input),
	}
}
