package service

import (
	"clmm-price-sol/internal/fetcher"
	"clmm-price-sol/internal/logic/layout"
	"clmm-price-sol/internal/logic/pricing"
	"clmm-price-sol/internal/mq"
	"clmm-price-sol/internal/types"
	"clmm-price-sol/pkg/logger"
	"clmm-price-sol/pkg/utils"
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// ReportSink 接收成功的价格报告，失败只记录日志，不影响单个池子的结果
type ReportSink interface {
	Publish(ctx context.Context, msgs []mq.ReportMessage) error
}

// Result 单个池子 fetch -> decode -> validate 的结果，Report 与 Err 二选一
type Result struct {
	Address types.Pubkey
	Owner   types.Pubkey
	DataLen int
	Report  *pricing.PriceReport
	Err     error
}

func (r *Result) OK() bool {
	return r.Err == nil && r.Report != nil
}

type Option func(*PoolInspector)

// WithEpochSource 开启按当前 epoch 计算 stale 阈值：current - maxLag
func WithEpochSource(src fetcher.EpochSource, maxLag uint64) Option {
	return func(p *PoolInspector) {
		p.epochs = src
		p.maxEpochLag = maxLag
	}
}

func WithWorkers(n int) Option {
	return func(p *PoolInspector) {
		p.workers = n
	}
}

func WithSink(sink ReportSink) Option {
	return func(p *PoolInspector) {
		p.sink = sink
	}
}

// PoolInspector 串起账户获取、布局解码与校验定价，池子之间互不影响
type PoolInspector struct {
	fetcher     fetcher.AccountFetcher
	validator   *pricing.Validator
	epochs      fetcher.EpochSource
	maxEpochLag uint64
	workers     int
	sink        ReportSink
}

func NewPoolInspector(f fetcher.AccountFetcher, v *pricing.Validator, opts ...Option) *PoolInspector {
	p := &PoolInspector{
		fetcher:   f,
		validator: v,
		workers:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inspect 处理单个池子
func (p *PoolInspector) Inspect(ctx context.Context, address types.Pubkey) Result {
	v := p.resolveValidator(ctx)
	res := p.inspect(ctx, v, address)
	p.publish(ctx, []Result{res})
	return res
}

// InspectAll 并发处理一批池子，结果与输入顺序一致
func (p *PoolInspector) InspectAll(ctx context.Context, addresses []types.Pubkey) []Result {
	v := p.resolveValidator(ctx)

	start := time.Now()
	results := utils.ParallelMap(addresses, p.workers, func(addr types.Pubkey) Result {
		return p.inspect(ctx, v, addr)
	})

	failed := 0
	for i := range results {
		if !results[i].OK() {
			failed++
		}
	}
	logger.Infof("[PoolInspector] 检查完成: total=%d, failed=%d, 耗时=%v", len(results), failed, time.Since(start))

	p.publish(ctx, results)
	return results
}

func (p *PoolInspector) resolveValidator(ctx context.Context) *pricing.Validator {
	if p.epochs == nil || p.maxEpochLag == 0 {
		return p.validator
	}
	current, err := p.epochs.CurrentEpoch(ctx)
	if err != nil {
		logger.Warnf("[PoolInspector] 获取当前 epoch 失败，使用固定阈值 %d: %v", p.validator.StaleEpochThreshold(), err)
		return p.validator
	}

	var threshold uint64
	if current > p.maxEpochLag {
		threshold = current - p.maxEpochLag
	}
	logger.Debugf("[PoolInspector] 当前 epoch=%d, stale 阈值=%d", current, threshold)
	return p.validator.WithStaleEpochThreshold(threshold)
}

func (p *PoolInspector) inspect(ctx context.Context, v *pricing.Validator, address types.Pubkey) (res Result) {
	res.Address = address
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[PoolInspector] pool=%s panic: %v\n%s", address, r, debug.Stack())
			res.Report = nil
			res.Err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	account, err := p.fetcher.FetchAccount(ctx, address)
	if err != nil {
		res.Err = err
		return res
	}
	res.Owner = account.Owner
	res.DataLen = len(account.Data)

	state, err := layout.DecodePoolState(account.Data)
	if err != nil {
		res.Err = err
		return res
	}

	report, err := v.ValidateAndPrice(state, account.Owner)
	if err != nil {
		res.Err = err
		return res
	}
	res.Report = report
	return res
}

func (p *PoolInspector) publish(ctx context.Context, results []Result) {
	if p.sink == nil {
		return
	}

	now := time.Now()
	msgs := make([]mq.ReportMessage, 0, len(results))
	for i := range results {
		if results[i].OK() {
			msgs = append(msgs, mq.ReportMessage{
				Pool:       results[i].Address,
				ObservedAt: now,
				Report:     results[i].Report,
			})
		}
	}
	if len(msgs) == 0 {
		return
	}
	if err := p.sink.Publish(ctx, msgs); err != nil {
		logger.Warnf("[PoolInspector] 推送报告失败: count=%d, err=%v", len(msgs), err)
	}
}
