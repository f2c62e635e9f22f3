package service

import (
	"fmt"
	"io"
)

// PrintResult 输出单个池子的报告，失败时只输出一行
func PrintResult(w io.Writer, res Result) {
	if !res.OK() {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("empty report")
		}
		fmt.Fprintf(w, "pool %s failed [%s]: %v\n", res.Address, ErrorKind(err), err)
		return
	}

	r := res.Report
	s := r.Snapshot
	fmt.Fprintf(w, "\n正在检查池: %s\n", res.Address)
	fmt.Fprintf(w, "账户数据长度: %d\n", res.DataLen)
	fmt.Fprintf(w, "账户拥有者 (程序 ID): %s\n", res.Owner)
	fmt.Fprintf(w, "token_mint_0: %s\n", s.TokenMint0)
	fmt.Fprintf(w, "token_mint_1: %s\n", s.TokenMint1)
	fmt.Fprintf(w, "token_vault_0: %s\n", s.TokenVault0)
	fmt.Fprintf(w, "token_vault_1: %s\n", s.TokenVault1)
	fmt.Fprintf(w, "sqrt_price_x64: %s\n", s.SqrtPriceX64)
	fmt.Fprintf(w, "流动性: %s\n", s.Liquidity)
	fmt.Fprintf(w, "当前刻度: %d\n", s.TickCurrent)
	fmt.Fprintf(w, "刻度间距: %d\n", s.TickSpacing)
	fmt.Fprintf(w, "代币0小数位: %d\n", s.MintDecimals0)
	fmt.Fprintf(w, "代币1小数位: %d\n", s.MintDecimals1)
	fmt.Fprintf(w, "池状态: %d\n", s.Status)
	fmt.Fprintf(w, "池创建时间: %d\n", s.OpenTime)
	fmt.Fprintf(w, "最近 epoch: %d\n", s.RecentEpoch)
	fmt.Fprintf(w, "tick_array_bitmap (前 2 个): %v\n", s.TickArrayBitmap)
	fmt.Fprintf(w, "代币对: %s (%s)\n", r.Pair, r.Orientation)
	fmt.Fprintf(w, "当前价格: %s %s per %s\n", r.Price.StringFixed(4), r.Quote, r.Base)
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "警告[%s]: %s\n", warn.Code, warn.Message)
	}
	fmt.Fprintf(w, "池 %s 检查完成\n", res.Address)
}
