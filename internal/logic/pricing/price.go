package pricing

import (
	"errors"
	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
	"math/big"
)

const (
	// Q64.64 定点数的小数位数
	sqrtPriceFracBits = 64
	// big.Float 精度（bit），远超 u128 平方所需，保证除以 2^64 与取倒数时不截断
	floatPrec = 256
	// 转 decimal 时保留的有效数字
	decimalDigits = 40
)

// ErrZeroSqrtPrice sqrt_price 为 0 时 BA 方向无法取倒数
var ErrZeroSqrtPrice = errors.New("sqrt price is zero, reciprocal price undefined")

func newFloat() *big.Float {
	return new(big.Float).SetPrec(floatPrec)
}

// SqrtPrice 把 Q64.64 的 sqrt_price_x64 还原为真实值 sqrt_price_x64 / 2^64（精确移位）
func SqrtPrice(sqrtPriceX64 uint128.Uint128) *big.Float {
	f := newFloat().SetInt(sqrtPriceX64.Big())
	return f.SetMantExp(f, -sqrtPriceFracBits)
}

// RawPrice = (sqrt_price_x64 / 2^64)^2，即每最小单位 token0 对应的 token1 最小单位数
func RawPrice(sqrtPriceX64 uint128.Uint128) *big.Float {
	s := SqrtPrice(sqrtPriceX64)
	return newFloat().Mul(s, s)
}

// pow10 返回 10^exp，exp 可为负
func pow10(exp int) *big.Float {
	abs := exp
	if abs < 0 {
		abs = -abs
	}
	p := newFloat().SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs)), nil))
	if exp < 0 {
		return newFloat().Quo(newFloat().SetInt64(1), p)
	}
	return p
}

// OrientedPrice 计算「每 1 个 A 值多少个 B」，小数位调整跟随方向：
//   - AB（A=token0）: raw * 10^(d0-d1)
//   - BA（A=token1）: (1/raw) * 10^(d1-d0)
func OrientedPrice(sqrtPriceX64 uint128.Uint128, decimals0, decimals1 uint8, orientation Orientation) (*big.Float, error) {
	token0InToken1 := newFloat().Mul(RawPrice(sqrtPriceX64), pow10(int(decimals0)-int(decimals1)))

	switch orientation {
	case OrientationAB:
		return token0InToken1, nil
	case OrientationBA:
		if token0InToken1.Sign() == 0 {
			return nil, ErrZeroSqrtPrice
		}
		return newFloat().Quo(newFloat().SetInt64(1), token0InToken1), nil
	default:
		return nil, errors.New("unknown orientation")
	}
}

// toDecimal 以 40 位有效数字把 big.Float 转成 decimal
func toDecimal(f *big.Float) decimal.Decimal {
	if f.Sign() == 0 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(f.Text('e', decimalDigits))
	if err != nil {
		v, _ := f.Float64()
		return decimal.NewFromFloat(v)
	}
	return d
}
