package fetcher

import (
	"clmm-price-sol/internal/types"
	"clmm-price-sol/pkg/logger"
	"context"
	"fmt"
	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"time"
)

const defaultTimeout = 5 * time.Second

// RpcFetcher 通过 Solana JSON-RPC 拉取账户与 epoch
type RpcFetcher struct {
	client  *client.Client
	timeout time.Duration
}

func NewRpcFetcher(endpoint string, timeout time.Duration) *RpcFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RpcFetcher{
		client:  client.NewClient(endpoint),
		timeout: timeout,
	}
}

func (f *RpcFetcher) FetchAccount(ctx context.Context, address types.Pubkey) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	info, err := f.client.GetAccountInfo(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("%w: getAccountInfo %s: %v", ErrTransport, address, err)
	}
	if info.Owner == (common.PublicKey{}) && len(info.Data) == 0 && info.Lamports == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	logger.Debugf("[RpcFetcher] getAccountInfo 成功: account=%s, len=%d, 耗时=%v", address, len(info.Data), time.Since(start))

	return &Account{
		Address:  address,
		Owner:    types.Pubkey(info.Owner),
		Lamports: info.Lamports,
		Data:     info.Data,
	}, nil
}

func (f *RpcFetcher) CurrentEpoch(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	info, err := f.client.GetEpochInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: getEpochInfo: %v", ErrTransport, err)
	}
	return info.Epoch, nil
}
