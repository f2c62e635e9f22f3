package layout

import (
	"clmm-price-sol/pkg/logger"
	"errors"
	"fmt"
	"github.com/near/borsh-go"
	"runtime/debug"
)

var (
	// ErrTooShort 账户数据不足以容纳鉴别器或完整的 PoolState
	ErrTooShort = errors.New("account data too short")
	// ErrFieldDecode 单个字段无法按声明宽度解析
	ErrFieldDecode = errors.New("field decode failed")
)

// DecodePoolState 去掉前 8 字节鉴别器后按固定布局解码 PoolState。
// 超出 PoolStateSize 的尾部数据忽略；鉴别器内容原样保留在返回值中，由调用方校验
func DecodePoolState(data []byte) (*PoolState, error) {
	if len(data) < DiscriminatorSize {
		return nil, fmt.Errorf("%w: got %d bytes, discriminator needs %d", ErrTooShort, len(data), DiscriminatorSize)
	}
	body := data[DiscriminatorSize:]
	if len(body) < PoolStateSize {
		return nil, fmt.Errorf("%w: record body %d bytes, layout needs %d", ErrTooShort, len(body), PoolStateSize)
	}

	state := &PoolState{}
	copy(state.Discriminator[:], data[:DiscriminatorSize])

	r := newReader(body[:PoolStateSize])

	state.Bump = r.u8("bump")
	state.AmmConfig = r.pubkey("amm_config")
	state.Owner = r.pubkey("owner")
	state.TokenMint0 = r.pubkey("token_mint_0")
	state.TokenMint1 = r.pubkey("token_mint_1")
	state.TokenVault0 = r.pubkey("token_vault_0")
	state.TokenVault1 = r.pubkey("token_vault_1")
	state.ObservationKey = r.pubkey("observation_key")

	state.MintDecimals0 = r.u8("mint_decimals_0")
	state.MintDecimals1 = r.u8("mint_decimals_1")
	state.TickSpacing = r.u16("tick_spacing")
	state.Liquidity = r.u128("liquidity")
	state.SqrtPriceX64 = r.u128("sqrt_price_x64")
	state.TickCurrent = r.i32("tick_current")
	r.skip(poolPadding34Size, "padding3/padding4")

	state.FeeGrowthGlobal0X64 = r.u128("fee_growth_global_0_x64")
	state.FeeGrowthGlobal1X64 = r.u128("fee_growth_global_1_x64")
	state.ProtocolFeesToken0 = r.u64("protocol_fees_token_0")
	state.ProtocolFeesToken1 = r.u64("protocol_fees_token_1")

	state.SwapInAmountToken0 = r.u128("swap_in_amount_token_0")
	state.SwapOutAmountToken1 = r.u128("swap_out_amount_token_1")
	state.SwapInAmountToken1 = r.u128("swap_in_amount_token_1")
	state.SwapOutAmountToken0 = r.u128("swap_out_amount_token_0")

	state.Status = r.u8("status")
	r.skip(poolPaddingSize, "padding")

	for i := range state.RewardInfos {
		raw := r.take(RewardInfoSize, fmt.Sprintf("reward_infos[%d]", i))
		if raw == nil {
			break
		}
		info, err := decodeRewardInfo(raw)
		if err != nil {
			return nil, fmt.Errorf("reward_infos[%d]: %w", i, err)
		}
		state.RewardInfos[i] = info
	}

	for i := range state.TickArrayBitmap {
		state.TickArrayBitmap[i] = r.u64("tick_array_bitmap")
	}

	state.TotalFeesToken0 = r.u64("total_fees_token_0")
	state.TotalFeesClaimedToken0 = r.u64("total_fees_claimed_token_0")
	state.TotalFeesToken1 = r.u64("total_fees_token_1")
	state.TotalFeesClaimedToken1 = r.u64("total_fees_claimed_token_1")
	state.FundFeesToken0 = r.u64("fund_fees_token_0")
	state.FundFeesToken1 = r.u64("fund_fees_token_1")

	state.OpenTime = r.u64("open_time")
	state.RecentEpoch = r.u64("recent_epoch")

	r.skip(poolPadding1Size, "padding1")
	r.skip(poolPadding2Size, "padding2")

	if r.err != nil {
		return nil, r.err
	}
	if r.offset != PoolStateSize {
		return nil, fmt.Errorf("%w: layout consumed %d bytes, want %d", ErrFieldDecode, r.offset, PoolStateSize)
	}
	return state, nil
}

// decodeRewardInfo 用 borsh 解析单个 RewardInfo（全部为定长字段，u128 按 Lo/Hi 两个 u64 小端读取）
func decodeRewardInfo(raw []byte) (info RewardInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[layout][panic] borsh.Deserialize RewardInfo panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("%w: reward info panic: %v", ErrFieldDecode, r)
		}
	}()

	if len(raw) != RewardInfoSize {
		return RewardInfo{}, fmt.Errorf("%w: reward info %d bytes, want %d", ErrFieldDecode, len(raw), RewardInfoSize)
	}
	if err := borsh.Deserialize(&info, raw); err != nil {
		return RewardInfo{}, fmt.Errorf("%w: reward info: %v", ErrFieldDecode, err)
	}
	return info, nil
}
