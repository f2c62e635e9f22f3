package pricing

import (
	"clmm-price-sol/internal/logic/layout"
	"clmm-price-sol/internal/types"
	"github.com/shopspring/decimal"
)

type WarningCode string

const (
	WarnInactivePool     WarningCode = "inactive_pool"
	WarnPoolPaused       WarningCode = "pool_paused"
	WarnStalePool        WarningCode = "stale_pool"
	WarnDecimalsMismatch WarningCode = "decimals_mismatch"
	WarnLowPrice         WarningCode = "low_price"
)

// Warning 非致命的可疑状态，附在成功的报告上
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// PriceReport 单个池子的校验与定价结果
type PriceReport struct {
	Orientation Orientation     `json:"orientation"`
	Pair        string          `json:"pair"`  // 池子内 token0/token1 顺序的符号对
	Base        string          `json:"base"`  // 配置中的 A
	Quote       string          `json:"quote"` // 配置中的 B
	RawPrice    decimal.Decimal `json:"raw_price"`
	Price       decimal.Decimal `json:"price"` // 每 1 个 Base 值多少个 Quote
	Warnings    []Warning       `json:"warnings"`
	Snapshot    Snapshot        `json:"snapshot"`
}

func (r *PriceReport) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Snapshot 报告中展示用的 PoolState 字段
type Snapshot struct {
	TokenMint0      types.Pubkey `json:"token_mint_0"`
	TokenMint1      types.Pubkey `json:"token_mint_1"`
	TokenVault0     types.Pubkey `json:"token_vault_0"`
	TokenVault1     types.Pubkey `json:"token_vault_1"`
	SqrtPriceX64    string       `json:"sqrt_price_x64"`
	Liquidity       string       `json:"liquidity"`
	TickCurrent     int32        `json:"tick_current"`
	TickSpacing     uint16       `json:"tick_spacing"`
	MintDecimals0   uint8        `json:"mint_decimals_0"`
	MintDecimals1   uint8        `json:"mint_decimals_1"`
	Status          uint8        `json:"status"`
	OpenTime        uint64       `json:"open_time"`
	RecentEpoch     uint64       `json:"recent_epoch"`
	TickArrayBitmap [2]uint64    `json:"tick_array_bitmap_head"`
}

func NewSnapshot(state *layout.PoolState) Snapshot {
	return Snapshot{
		TokenMint0:      state.TokenMint0,
		TokenMint1:      state.TokenMint1,
		TokenVault0:     state.TokenVault0,
		TokenVault1:     state.TokenVault1,
		SqrtPriceX64:    state.SqrtPriceX64.String(),
		Liquidity:       state.Liquidity.String(),
		TickCurrent:     state.TickCurrent,
		TickSpacing:     state.TickSpacing,
		MintDecimals0:   state.MintDecimals0,
		MintDecimals1:   state.MintDecimals1,
		Status:          state.Status,
		OpenTime:        state.OpenTime,
		RecentEpoch:     state.RecentEpoch,
		TickArrayBitmap: [2]uint64{state.TickArrayBitmap[0], state.TickArrayBitmap[1]},
	}
}
