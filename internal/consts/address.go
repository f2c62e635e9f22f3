package consts

import "clmm-price-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// DEX: Raydium
	RaydiumCLMMProgramStr = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"

	// USD 计价基础报价币
	WSOLMintStr = "So11111111111111111111111111111111111111112"
	USDCMintStr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMintStr = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"

	// Raydium CLMM 主网 SOL/USDC 池
	RaydiumCLMMSolUsdcPoolStr    = "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj"
	RaydiumCLMMSolUsdcAltPoolStr = "3ucNos4NbumPLZNWztqGHNFFgkHeRMBQAVemeeomsUxv"
)

var (
	RaydiumCLMMProgram = types.PubkeyFromBase58(RaydiumCLMMProgramStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
	USDCMint = types.PubkeyFromBase58(USDCMintStr)
	USDTMint = types.PubkeyFromBase58(USDTMintStr)
)

// RaydiumCLMMPoolStateDiscriminator 是 Anchor 账户鉴别器 sha256("account:PoolState")[:8]
var RaydiumCLMMPoolStateDiscriminator = [8]byte{247, 237, 227, 245, 215, 195, 222, 70}
