package config

import (
	"clmm-price-sol/internal/consts"
	"clmm-price-sol/internal/logic/pricing"
	"clmm-price-sol/internal/tools"
	"clmm-price-sol/internal/types"
	"clmm-price-sol/pkg/logger"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

var ErrNoPools = errors.New("config: pools is empty")

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径），为空时只输出到 stderr
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig Solana JSON-RPC 节点配置
type RpcConfig struct {
	Endpoint  string `yaml:"endpoint"`   // RPC 地址
	TimeoutMs int    `yaml:"timeout_ms"` // 单次请求超时（毫秒）
}

// PairConfig 期望的交易对，价格表示为每 1 个 A 值多少个 B
type PairConfig struct {
	MintA   string `yaml:"mint_a"`
	MintB   string `yaml:"mint_b"`
	SymbolA string `yaml:"symbol_a"` // 为空时按已知 mint 推断
	SymbolB string `yaml:"symbol_b"`
}

// ValidationConfig 校验与告警阈值
type ValidationConfig struct {
	StaleEpochThreshold uint64  `yaml:"stale_epoch_threshold"` // recent_epoch 低于该值告警
	MaxEpochLag         uint64  `yaml:"max_epoch_lag"`         // >0 时改用 当前 epoch - lag 作为阈值
	MinPrice            float64 `yaml:"min_price"`             // 价格低于该值告警，<=0 关闭
	CheckDiscriminator  bool    `yaml:"check_discriminator"`   // 校验 PoolState 鉴别器
	CheckDecimals       bool    `yaml:"check_decimals"`        // 校验已知 mint 的小数位
}

// PollConfig 轮询模式配置
type PollConfig struct {
	IntervalS int `yaml:"interval_s"` // 轮询间隔（秒），0 表示只跑一次
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时不启用
type KafkaProducerConfig struct {
	Brokers       string `yaml:"brokers"`         // Kafka broker 地址，多个用英文逗号分隔
	Topic         string `yaml:"topic"`           // 价格报告 topic
	Partitions    int    `yaml:"partitions"`      // topic 分区数，>1 时按池子地址选择分区
	Format        string `yaml:"format"`          // 消息格式："json"（默认）或 "proto"
	BatchSize     int    `yaml:"batch_size"`      // 批处理大小（单位字节）
	LingerMs      int    `yaml:"linger_ms"`       // 批处理最大延迟（毫秒）
	SendTimeoutMs int    `yaml:"send_timeout_ms"` // 单条消息发送并等待 ack 的超时时间
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

// InspectorConfig 是主配置结构体
type InspectorConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	Rpc               RpcConfig           `yaml:"rpc"`            // RPC 配置
	ProgramID         string              `yaml:"program_id"`     // Raydium CLMM 程序地址
	Pair              PairConfig          `yaml:"pair"`           // 期望交易对
	Validation        ValidationConfig    `yaml:"validation"`     // 校验配置
	Pools             []string            `yaml:"pools"`          // 待检查的池子地址
	Workers           int                 `yaml:"workers"`        // 并发数，<=0 时取 CPU 核数
	Poll              PollConfig          `yaml:"poll"`           // 轮询配置
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置
}

// Default 返回主网 SOL/USDC 的默认配置
func Default() InspectorConfig {
	return InspectorConfig{
		LogConf: LogConfig{Format: "console", Level: "info"},
		Rpc: RpcConfig{
			Endpoint:  consts.DefaultRpcEndpoint,
			TimeoutMs: 5000,
		},
		ProgramID: consts.RaydiumCLMMProgramStr,
		Pair: PairConfig{
			MintA: consts.WSOLMintStr,
			MintB: consts.USDCMintStr,
		},
		Validation: ValidationConfig{
			StaleEpochThreshold: consts.DefaultStaleEpochThreshold,
			MinPrice:            consts.DefaultMinPrice,
			CheckDiscriminator:  true,
			CheckDecimals:       true,
		},
		Pools: []string{
			consts.RaydiumCLMMSolUsdcPoolStr,
			consts.RaydiumCLMMSolUsdcAltPoolStr,
		},
		Workers: consts.CpuCount,
	}
}

// Load 读取 YAML 配置，未出现的字段保留默认值；显式写出的空 pools 会在 Resolve 时被拒绝
func Load(path string) (*InspectorConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*InspectorConfig, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if c.Workers <= 0 {
		c.Workers = consts.CpuCount
	}
	if c.Rpc.TimeoutMs <= 0 {
		c.Rpc.TimeoutMs = 5000
	}
	return &c, nil
}

// Resolved 启动时一次性解析好的运行参数，下游不再接触字符串形式的地址
type Resolved struct {
	ProgramID    types.Pubkey
	Pair         pricing.Pair
	Options      pricing.Options
	Pools        []types.Pubkey
	MaxEpochLag  uint64
	Workers      int
	RpcTimeout   time.Duration
	PollInterval time.Duration
}

func (c *InspectorConfig) Resolve() (*Resolved, error) {
	programID, err := types.TryPubkeyFromBase58(c.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("config: program_id: %w", err)
	}
	mintA, err := types.TryPubkeyFromBase58(c.Pair.MintA)
	if err != nil {
		return nil, fmt.Errorf("config: pair.mint_a: %w", err)
	}
	mintB, err := types.TryPubkeyFromBase58(c.Pair.MintB)
	if err != nil {
		return nil, fmt.Errorf("config: pair.mint_b: %w", err)
	}
	if mintA == mintB {
		return nil, fmt.Errorf("config: pair.mint_a and pair.mint_b are both %s", mintA)
	}
	if len(c.Pools) == 0 {
		return nil, ErrNoPools
	}
	pools, err := types.PubkeysFromBase58(c.Pools)
	if err != nil {
		return nil, fmt.Errorf("config: pools: %w", err)
	}

	opts := pricing.Options{
		StaleEpochThreshold: c.Validation.StaleEpochThreshold,
		MinPrice:            decimal.NewFromFloat(c.Validation.MinPrice),
	}
	if c.Validation.CheckDiscriminator {
		disc := consts.RaydiumCLMMPoolStateDiscriminator
		opts.ExpectedDiscriminator = &disc
	}
	if c.Validation.CheckDecimals {
		opts.KnownDecimals = tools.KnownDecimals
	}

	workers := c.Workers
	if workers <= 0 {
		workers = consts.CpuCount
	}

	return &Resolved{
		ProgramID: programID,
		Pair: pricing.Pair{
			MintA:   mintA,
			MintB:   mintB,
			SymbolA: c.Pair.SymbolA,
			SymbolB: c.Pair.SymbolB,
		},
		Options:      opts,
		Pools:        pools,
		MaxEpochLag:  c.Validation.MaxEpochLag,
		Workers:      workers,
		RpcTimeout:   time.Duration(c.Rpc.TimeoutMs) * time.Millisecond,
		PollInterval: time.Duration(c.Poll.IntervalS) * time.Second,
	}, nil
}
