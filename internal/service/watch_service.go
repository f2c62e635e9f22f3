package service

import (
	"clmm-price-sol/internal/types"
	"clmm-price-sol/pkg/logger"
	"context"
	"errors"
	"io"
	"runtime/debug"
	"time"
)

// WatchService 按固定间隔重复检查一批池子，实现 go-zero service.Service
type WatchService struct {
	inspector *PoolInspector
	pools     []types.Pubkey
	interval  time.Duration
	out       io.Writer
	stopChan  chan struct{}
	ctx       context.Context
	cancel    context.CancelCauseFunc
}

func NewWatchService(inspector *PoolInspector, pools []types.Pubkey, interval time.Duration, out io.Writer) *WatchService {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &WatchService{
		inspector: inspector,
		pools:     pools,
		interval:  interval,
		out:       out,
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 立即跑一轮，然后按间隔调度，阻塞直到 Stop
func (s *WatchService) Start() {
	s.RunOnce()
	s.scheduleNext()
	<-s.stopChan
}

func (s *WatchService) scheduleNext() {
	time.AfterFunc(s.interval, func() {
		// 如果已经 Stop，就不再执行和调度
		if s.ctx.Err() != nil {
			return
		}
		s.RunOnce()
		select {
		case <-s.ctx.Done():
			return
		default:
			s.scheduleNext()
		}
	})
}

func (s *WatchService) Stop() {
	s.cancel(errors.New("WatchService stop"))
	select {
	case <-s.stopChan:
		// 已关闭，无需重复关闭
	default:
		close(s.stopChan)
	}
}

// RunOnce 执行一轮检查并输出结果，返回失败的池子数
func (s *WatchService) RunOnce() (failed int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[WatchService] run panic: %v\n%s", r, debug.Stack())
		}
	}()

	results := s.inspector.InspectAll(s.ctx, s.pools)
	for i := range results {
		PrintResult(s.out, results[i])
		logResult(results[i])
		if !results[i].OK() {
			failed++
		}
	}
	return failed
}

func logResult(res Result) {
	if !res.OK() {
		logger.Errorf("[PoolInspector] pool=%s kind=%s err=%v", res.Address, ErrorKind(res.Err), res.Err)
		return
	}
	for _, w := range res.Report.Warnings {
		logger.Warnf("[PoolInspector] pool=%s %s: %s", res.Address, w.Code, w.Message)
	}
}
