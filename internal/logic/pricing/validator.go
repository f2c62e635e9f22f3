package pricing

import (
	"clmm-price-sol/internal/logic/layout"
	"clmm-price-sol/internal/tools"
	"clmm-price-sol/internal/types"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
)

var (
	ErrWrongProgramOwner       = errors.New("account not owned by expected program")
	ErrUnexpectedDiscriminator = errors.New("account discriminator is not PoolState")
	ErrUnexpectedTradingPair   = errors.New("pool is not the expected trading pair")
)

// Orientation 配置中的 A/B 与池子 token0/token1 的对应关系
type Orientation int

const (
	OrientationAB Orientation = iota + 1 // A = token0, B = token1
	OrientationBA                        // A = token1, B = token0
)

func (o Orientation) String() string {
	switch o {
	case OrientationAB:
		return "AB"
	case OrientationBA:
		return "BA"
	default:
		return "unknown"
	}
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Pair 期望的交易对，价格以「每 1 个 A 值多少个 B」表示
type Pair struct {
	MintA   types.Pubkey
	MintB   types.Pubkey
	SymbolA string
	SymbolB string
}

func (p Pair) symbolA() string {
	if p.SymbolA != "" {
		return p.SymbolA
	}
	return tools.SymbolOf(p.MintA)
}

func (p Pair) symbolB() string {
	if p.SymbolB != "" {
		return p.SymbolB
	}
	return tools.SymbolOf(p.MintB)
}

// Options 校验参数，零值表示关闭对应的可选检查
type Options struct {
	// ExpectedDiscriminator 非空时要求账户鉴别器与之相等
	ExpectedDiscriminator *[layout.DiscriminatorSize]byte
	// StaleEpochThreshold recent_epoch 低于该值时告警
	StaleEpochThreshold uint64
	// MinPrice 价格低于该值时告警，<=0 关闭
	MinPrice decimal.Decimal
	// KnownDecimals 非空时校验池子记录的 mint 小数位
	KnownDecimals map[types.Pubkey]uint8
}

// Validator 校验池子归属与交易对并推导价格，无内部状态，可并发使用
type Validator struct {
	programID types.Pubkey
	pair      Pair
	opts      Options
}

func NewValidator(programID types.Pubkey, pair Pair, opts Options) *Validator {
	return &Validator{programID: programID, pair: pair, opts: opts}
}

// WithStaleEpochThreshold 返回只替换了 stale 阈值的副本
func (v *Validator) WithStaleEpochThreshold(threshold uint64) *Validator {
	cp := *v
	cp.opts.StaleEpochThreshold = threshold
	return &cp
}

func (v *Validator) StaleEpochThreshold() uint64 {
	return v.opts.StaleEpochThreshold
}

// ValidateAndPrice 依次做归属检查、鉴别器检查、交易对检查，然后推导价格并收集告警。
// 告警不会中断报告生成
func (v *Validator) ValidateAndPrice(state *layout.PoolState, accountOwner types.Pubkey) (*PriceReport, error) {
	if accountOwner != v.programID {
		return nil, fmt.Errorf("%w: owner=%s, expected=%s", ErrWrongProgramOwner, accountOwner, v.programID)
	}

	if want := v.opts.ExpectedDiscriminator; want != nil && state.Discriminator != *want {
		return nil, fmt.Errorf("%w: got %v, expected %v", ErrUnexpectedDiscriminator, state.Discriminator, *want)
	}

	var orientation Orientation
	switch {
	case state.TokenMint0 == v.pair.MintA && state.TokenMint1 == v.pair.MintB:
		orientation = OrientationAB
	case state.TokenMint0 == v.pair.MintB && state.TokenMint1 == v.pair.MintA:
		orientation = OrientationBA
	default:
		return nil, fmt.Errorf("%w: token_mint_0=%s, token_mint_1=%s, expected %s/%s",
			ErrUnexpectedTradingPair, state.TokenMint0, state.TokenMint1, v.pair.symbolA(), v.pair.symbolB())
	}

	price, err := OrientedPrice(state.SqrtPriceX64, state.MintDecimals0, state.MintDecimals1, orientation)
	if err != nil {
		return nil, err
	}

	report := &PriceReport{
		Orientation: orientation,
		Base:        v.pair.symbolA(),
		Quote:       v.pair.symbolB(),
		RawPrice:    toDecimal(RawPrice(state.SqrtPriceX64)),
		Price:       toDecimal(price),
		Snapshot:    NewSnapshot(state),
	}
	if orientation == OrientationAB {
		report.Pair = report.Base + "/" + report.Quote
	} else {
		report.Pair = report.Quote + "/" + report.Base
	}

	report.Warnings = v.collectWarnings(state, report)
	return report, nil
}

func (v *Validator) collectWarnings(state *layout.PoolState, report *PriceReport) []Warning {
	var warnings []Warning

	if state.Liquidity.IsZero() {
		warnings = append(warnings, Warning{
			Code:    WarnInactivePool,
			Message: "liquidity is 0, pool may be inactive",
		})
	}
	if state.Status != 0 {
		warnings = append(warnings, Warning{
			Code:    WarnPoolPaused,
			Message: fmt.Sprintf("pool status is %d, pool may be paused or restricted", state.Status),
		})
	}
	if state.RecentEpoch < v.opts.StaleEpochThreshold {
		warnings = append(warnings, Warning{
			Code:    WarnStalePool,
			Message: fmt.Sprintf("recent epoch %d below threshold %d, pool may be inactive", state.RecentEpoch, v.opts.StaleEpochThreshold),
		})
	}
	if v.opts.KnownDecimals != nil {
		warnings = appendDecimalsWarning(warnings, state.TokenMint0, state.MintDecimals0, v.opts.KnownDecimals)
		warnings = appendDecimalsWarning(warnings, state.TokenMint1, state.MintDecimals1, v.opts.KnownDecimals)
	}
	if v.opts.MinPrice.IsPositive() && report.Price.LessThan(v.opts.MinPrice) {
		warnings = append(warnings, Warning{
			Code: WarnLowPrice,
			Message: fmt.Sprintf("price abnormally low (%s %s per %s), pool may be inactive or liquidity is off-range",
				report.Price.StringFixed(4), report.Quote, report.Base),
		})
	}
	return warnings
}

func appendDecimalsWarning(warnings []Warning, mint types.Pubkey, got uint8, known map[types.Pubkey]uint8) []Warning {
	want, ok := known[mint]
	if !ok || want == got {
		return warnings
	}
	return append(warnings, Warning{
		Code:    WarnDecimalsMismatch,
		Message: fmt.Sprintf("mint %s decimals recorded as %d, expected %d", mint, got, want),
	})
}
