package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"dao-auction/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// AuctionHouseSubmitter sends createBid transactions and waits until they are
// mined. The bid amount travels as transaction value, not a call argument.
type AuctionHouseSubmitter struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	log      logger.Logger
}

func NewAuctionHouseSubmitter(client *ethclient.Client, address, privateKeyHex string, chainID int64, log logger.Logger) (*AuctionHouseSubmitter, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bidder key: %w", err)
	}

	contract := bind.NewBoundContract(
		common.HexToAddress(address), auctionHouseABI, client, client, client)

	return &AuctionHouseSubmitter{
		client:   client,
		contract: contract,
		key:      key,
		chainID:  big.NewInt(chainID),
		log:      log,
	}, nil
}

func (s *AuctionHouseSubmitter) SubmitBid(ctx context.Context, tokenID *big.Int, amount *big.Int) (string, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return "", err
	}
	opts.Context = ctx
	opts.Value = amount

	tx, err := s.contract.Transact(opts, "createBid", tokenID)
	if err != nil {
		return "", fmt.Errorf("send createBid: %w", err)
	}

	s.log.Info("Bid transaction sent", "tx", tx.Hash().Hex(), "token_id", tokenID)

	receipt, err := bind.WaitMined(ctx, s.client, tx)
	if err != nil {
		return "", fmt.Errorf("wait for createBid: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("createBid reverted: tx %s", tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}
