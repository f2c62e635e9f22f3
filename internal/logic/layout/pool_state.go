package layout

import (
	"clmm-price-sol/internal/types"
	"lukechampine.com/uint128"
)

// Raydium CLMM PoolState 账户布局（小端序），账户总长 = DiscriminatorSize + PoolStateSize = 1544
const (
	DiscriminatorSize = 8

	RewardInfoCount      = 3
	RewardInfoSize       = 169
	TickArrayBitmapWords = 16

	poolPadding34Size = 2 + 2 // padding3 + padding4
	poolPaddingSize   = 7
	poolPadding1Size  = 24 * 8
	poolPadding2Size  = 32 * 8

	PoolStateSize = 1536
	AccountSize   = DiscriminatorSize + PoolStateSize
)

// 以 record body（去掉鉴别器后）为基准的字段偏移
const (
	OffsetBump               = 0
	OffsetAmmConfig          = 1
	OffsetTokenMint0         = 65
	OffsetTokenMint1         = 97
	OffsetMintDecimals0      = 225
	OffsetTickSpacing        = 227
	OffsetLiquidity          = 229
	OffsetSqrtPriceX64       = 245
	OffsetTickCurrent        = 261
	OffsetFeeGrowthGlobal0   = 269
	OffsetProtocolFeesToken0 = 301
	OffsetSwapInAmountToken0 = 317
	OffsetStatus             = 381
	OffsetRewardInfos        = 389
	OffsetTickArrayBitmap    = 896
	OffsetTotalFeesToken0    = 1024
	OffsetOpenTime           = 1072
	OffsetRecentEpoch        = 1080
	OffsetPadding1           = 1088
)

// RewardInfo 单个流动性挖矿奖励流，固定 169 字节
type RewardInfo struct {
	RewardState           uint8
	OpenTime              uint64
	EndTime               uint64
	LastUpdateTime        uint64
	EmissionsPerSecondX64 uint128.Uint128 // Q64.64
	RewardTotalEmissioned uint64
	RewardClaimed         uint64
	TokenMint             types.Pubkey
	TokenVault            types.Pubkey
	Authority             types.Pubkey
	RewardGrowthGlobalX64 uint128.Uint128 // Q64.64
}

// PoolState 解码后的池子账户。padding 区域在解码时跳过，不保留
type PoolState struct {
	Discriminator [DiscriminatorSize]byte

	Bump           uint8
	AmmConfig      types.Pubkey
	Owner          types.Pubkey
	TokenMint0     types.Pubkey
	TokenMint1     types.Pubkey
	TokenVault0    types.Pubkey
	TokenVault1    types.Pubkey
	ObservationKey types.Pubkey

	MintDecimals0 uint8
	MintDecimals1 uint8
	TickSpacing   uint16
	Liquidity     uint128.Uint128
	SqrtPriceX64  uint128.Uint128 // Q64.64
	TickCurrent   int32

	FeeGrowthGlobal0X64 uint128.Uint128
	FeeGrowthGlobal1X64 uint128.Uint128
	ProtocolFeesToken0  uint64
	ProtocolFeesToken1  uint64

	SwapInAmountToken0  uint128.Uint128
	SwapOutAmountToken1 uint128.Uint128
	SwapInAmountToken1  uint128.Uint128
	SwapOutAmountToken0 uint128.Uint128

	Status uint8

	RewardInfos     [RewardInfoCount]RewardInfo
	TickArrayBitmap [TickArrayBitmapWords]uint64

	TotalFeesToken0        uint64
	TotalFeesClaimedToken0 uint64
	TotalFeesToken1        uint64
	TotalFeesClaimedToken1 uint64
	FundFeesToken0         uint64
	FundFeesToken1         uint64

	OpenTime    uint64
	RecentEpoch uint64
}
