package tools

import (
	"clmm-price-sol/internal/consts"
	"clmm-price-sol/internal/types"
)

const (
	WSOLDecimals = 9
	USDCDecimals = 6
	USDTDecimals = 6
)

// KnownDecimals 是常用 mint 的链上小数位，用于校验池子里记录的 mint_decimals 是否可信
var KnownDecimals = map[types.Pubkey]uint8{
	consts.WSOLMint: WSOLDecimals,
	consts.USDCMint: USDCDecimals,
	consts.USDTMint: USDTDecimals,
}

var knownSymbols = map[types.Pubkey]string{
	consts.WSOLMint: "SOL",
	consts.USDCMint: "USDC",
	consts.USDTMint: "USDT",
}

// SymbolOf 返回 mint 的展示符号；未知 mint 使用缩写地址
func SymbolOf(mint types.Pubkey) string {
	if s, ok := knownSymbols[mint]; ok {
		return s
	}
	return mint.Short()
}
