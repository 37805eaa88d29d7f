package chainclient

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

//go:generate mockery --name=ChainInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_chain_client.go
type ChainInterface interface {
	GetBlockCount(ctx context.Context) (int64, error)
	GetBlockHashByHeight(ctx context.Context, height int64) (*chainhash.Hash, error)
	GetBlockByHeight(ctx context.Context, height int64) (*types.RawBlock, error)
	GetBlockByHash(ctx context.Context, blockHash *chainhash.Hash) (*types.RawBlock, error)
}
