package consts

import "runtime"

const (
	DefaultRpcEndpoint = "https://api.mainnet-beta.solana.com"

	// DefaultStaleEpochThreshold 低于该 epoch 视为长期无人交互的池子
	DefaultStaleEpochThreshold uint64 = 400

	// DefaultMinPrice SOL/USDC 价格的合理下限，低于它说明池子偏离正常区间
	DefaultMinPrice = 10.0
)

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()
