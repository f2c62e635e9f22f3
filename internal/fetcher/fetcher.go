package fetcher

import (
	"clmm-price-sol/internal/types"
	"context"
	"errors"
)

var (
	// ErrAccountNotFound 地址上不存在账户
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransport RPC 不可达或返回错误
	ErrTransport = errors.New("rpc transport error")
)

// Account 拉取到的原始账户
type Account struct {
	Address  types.Pubkey
	Owner    types.Pubkey
	Lamports uint64
	Data     []byte
}

// AccountFetcher 按地址拉取账户，超时与取消由实现负责
type AccountFetcher interface {
	FetchAccount(ctx context.Context, address types.Pubkey) (*Account, error)
}

// EpochSource 提供当前 epoch，用于推导 stale 阈值
type EpochSource interface {
	CurrentEpoch(ctx context.Context) (uint64, error)
}
