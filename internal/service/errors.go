package service

import (
	"clmm-price-sol/internal/fetcher"
	"clmm-price-sol/internal/logic/layout"
	"clmm-price-sol/internal/logic/pricing"
	"errors"
)

var ErrPanic = errors.New("inspect panic")

const (
	KindTransport               = "TransportError"
	KindTooShort                = "TooShort"
	KindFieldDecode             = "FieldDecodeError"
	KindWrongProgramOwner       = "WrongProgramOwner"
	KindUnexpectedTradingPair   = "UnexpectedTradingPair"
	KindUnexpectedDiscriminator = "UnexpectedDiscriminator"
	KindZeroSqrtPrice           = "ZeroSqrtPrice"
	KindUnknown                 = "Unknown"
)

// ErrorKind 返回错误在失败分类中的名字，nil 返回空串
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fetcher.ErrTransport), errors.Is(err, fetcher.ErrAccountNotFound):
		return KindTransport
	case errors.Is(err, layout.ErrTooShort):
		return KindTooShort
	case errors.Is(err, layout.ErrFieldDecode):
		return KindFieldDecode
	case errors.Is(err, pricing.ErrWrongProgramOwner):
		return KindWrongProgramOwner
	case errors.Is(err, pricing.ErrUnexpectedTradingPair):
		return KindUnexpectedTradingPair
	case errors.Is(err, pricing.ErrUnexpectedDiscriminator):
		return KindUnexpectedDiscriminator
	case errors.Is(err, pricing.ErrZeroSqrtPrice):
		return KindZeroSqrtPrice
	default:
		return KindUnknown
	}
}
