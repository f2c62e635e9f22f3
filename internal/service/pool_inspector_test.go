package service

import (
	"bytes"
	"clmm-price-sol/internal/consts"
	"clmm-price-sol/internal/fetcher"
	"clmm-price-sol/internal/logic/layout"
	"clmm-price-sol/internal/logic/pricing"
	"clmm-price-sol/internal/mq"
	"clmm-price-sol/internal/tools"
	"clmm-price-sol/internal/types"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// 账户数据中的绝对偏移（含 8 字节鉴别器）
const (
	absTokenMint0   = 73
	absTokenMint1   = 105
	absDecimals0    = 233
	absDecimals1    = 234
	absLiquidity    = 237
	absSqrtPriceX64 = 253
	absStatus       = 389
	absRecentEpoch  = 1088
)

func sqrtPriceX64For(price float64, decimals0, decimals1 uint8) uint128.Uint128 {
	raw := new(big.Float).SetPrec(256).SetFloat64(price)
	scale := new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals0)), nil))
	raw.Mul(raw, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals1)), nil)))
	raw.Quo(raw, scale)
	s := new(big.Float).SetPrec(256).Sqrt(raw)
	s.SetMantExp(s, 64)
	i, _ := s.Int(nil)
	return uint128.FromBig(i)
}

type poolSpec struct {
	mint0, mint1 types.Pubkey
	dec0, dec1   uint8
	price        float64
	liquidity    uint64
	status       uint8
	recentEpoch  uint64
}

func solUsdcSpec() poolSpec {
	return poolSpec{
		mint0: consts.WSOLMint, mint1: consts.USDCMint,
		dec0: 9, dec1: 6,
		price:       150,
		liquidity:   1_000_000,
		recentEpoch: 450,
	}
}

func buildPoolData(s poolSpec) []byte {
	data := make([]byte, layout.AccountSize)
	copy(data[0:8], consts.RaydiumCLMMPoolStateDiscriminator[:])
	copy(data[absTokenMint0:], s.mint0[:])
	copy(data[absTokenMint1:], s.mint1[:])
	data[absDecimals0] = s.dec0
	data[absDecimals1] = s.dec1
	uint128.From64(s.liquidity).PutBytes(data[absLiquidity:])
	sqrtPriceX64For(s.price, s.dec0, s.dec1).PutBytes(data[absSqrtPriceX64:])
	data[absStatus] = s.status
	binary.LittleEndian.PutUint64(data[absRecentEpoch:], s.recentEpoch)
	return data
}

type stubFetcher struct {
	mu       sync.Mutex
	accounts map[types.Pubkey]*fetcher.Account
	errs     map[types.Pubkey]error
	panics   map[types.Pubkey]bool
	calls    atomic.Int32
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		accounts: make(map[types.Pubkey]*fetcher.Account),
		errs:     make(map[types.Pubkey]error),
		panics:   make(map[types.Pubkey]bool),
	}
}

func (f *stubFetcher) add(addr types.Pubkey, owner types.Pubkey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[addr] = &fetcher.Account{Address: addr, Owner: owner, Lamports: 1, Data: data}
}

func (f *stubFetcher) FetchAccount(_ context.Context, addr types.Pubkey) (*fetcher.Account, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[addr] {
		panic("boom")
	}
	if err, ok := f.errs[addr]; ok {
		return nil, err
	}
	if acc, ok := f.accounts[addr]; ok {
		return acc, nil
	}
	return nil, fmt.Errorf("%w: %s", fetcher.ErrAccountNotFound, addr)
}

type stubEpochs struct {
	epoch uint64
	err   error
}

func (s stubEpochs) CurrentEpoch(context.Context) (uint64, error) {
	return s.epoch, s.err
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []mq.ReportMessage
	err  error
}

func (s *recordingSink) Publish(_ context.Context, msgs []mq.ReportMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msgs...)
	return s.err
}

func addr(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	p[31] = b
	return p
}

func newValidator() *pricing.Validator {
	disc := consts.RaydiumCLMMPoolStateDiscriminator
	return pricing.NewValidator(consts.RaydiumCLMMProgram,
		pricing.Pair{MintA: consts.WSOLMint, MintB: consts.USDCMint},
		pricing.Options{
			ExpectedDiscriminator: &disc,
			StaleEpochThreshold:   consts.DefaultStaleEpochThreshold,
			MinPrice:              decimal.NewFromFloat(consts.DefaultMinPrice),
			KnownDecimals:         tools.KnownDecimals,
		})
}

func TestInspect_Success(t *testing.T) {
	f := newStubFetcher()
	pool := addr(1)
	f.add(pool, consts.RaydiumCLMMProgram, buildPoolData(solUsdcSpec()))

	res := NewPoolInspector(f, newValidator()).Inspect(context.Background(), pool)
	require.NoError(t, res.Err)
	require.True(t, res.OK())
	assert.Equal(t, pool, res.Address)
	assert.Equal(t, layout.AccountSize, res.DataLen)
	assert.Equal(t, consts.RaydiumCLMMProgram, res.Owner)
	assert.Equal(t, pricing.OrientationAB, res.Report.Orientation)
	assert.Equal(t, "SOL/USDC", res.Report.Pair)
	assert.InDelta(t, 150.0, res.Report.Price.InexactFloat64(), 1e-9)
	assert.Empty(t, res.Report.Warnings)
}

func TestInspectAll_PartialFailure(t *testing.T) {
	f := newStubFetcher()
	good, missing, wrongOwner, short, other, panicky, transport := addr(1), addr(2), addr(3), addr(4), addr(5), addr(6), addr(7)

	f.add(good, consts.RaydiumCLMMProgram, buildPoolData(solUsdcSpec()))
	f.add(wrongOwner, consts.WSOLMint, buildPoolData(solUsdcSpec()))
	f.add(short, consts.RaydiumCLMMProgram, make([]byte, 100))
	otherSpec := solUsdcSpec()
	otherSpec.mint1 = consts.USDTMint
	f.add(other, consts.RaydiumCLMMProgram, buildPoolData(otherSpec))
	f.panics[panicky] = true
	f.errs[transport] = fmt.Errorf("%w: connection refused", fetcher.ErrTransport)

	addrs := []types.Pubkey{good, missing, wrongOwner, short, other, panicky, transport}
	results := NewPoolInspector(f, newValidator(), WithWorkers(4)).InspectAll(context.Background(), addrs)
	require.Len(t, results, len(addrs))

	for i, res := range results {
		assert.Equal(t, addrs[i], res.Address, "结果顺序与输入一致")
	}

	assert.True(t, results[0].OK())
	assert.Equal(t, KindTransport, ErrorKind(results[1].Err))
	assert.Equal(t, KindWrongProgramOwner, ErrorKind(results[2].Err))
	assert.Equal(t, KindTooShort, ErrorKind(results[3].Err))
	assert.Equal(t, KindUnexpectedTradingPair, ErrorKind(results[4].Err))
	assert.ErrorIs(t, results[5].Err, ErrPanic)
	assert.Equal(t, KindUnknown, ErrorKind(results[5].Err))
	assert.Equal(t, KindTransport, ErrorKind(results[6].Err))
	assert.Equal(t, int32(len(addrs)), f.calls.Load())
}

func TestInspectAll_Empty(t *testing.T) {
	results := NewPoolInspector(newStubFetcher(), newValidator()).InspectAll(context.Background(), nil)
	assert.Empty(t, results)
}

func TestInspect_EpochRelativeThreshold(t *testing.T) {
	f := newStubFetcher()
	pool := addr(1)
	f.add(pool, consts.RaydiumCLMMProgram, buildPoolData(solUsdcSpec())) // recent_epoch=450

	// 当前 epoch 500，允许落后 10 -> 阈值 490
	res := NewPoolInspector(f, newValidator(), WithEpochSource(stubEpochs{epoch: 500}, 10)).
		Inspect(context.Background(), pool)
	require.True(t, res.OK())
	assert.True(t, res.Report.HasWarning(pricing.WarnStalePool))

	// 当前 epoch 455 -> 阈值 445，不告警
	res = NewPoolInspector(f, newValidator(), WithEpochSource(stubEpochs{epoch: 455}, 10)).
		Inspect(context.Background(), pool)
	require.True(t, res.OK())
	assert.False(t, res.Report.HasWarning(pricing.WarnStalePool))

	// lag 大于当前 epoch 时阈值为 0
	res = NewPoolInspector(f, newValidator(), WithEpochSource(stubEpochs{epoch: 5}, 10)).
		Inspect(context.Background(), pool)
	require.True(t, res.OK())
	assert.False(t, res.Report.HasWarning(pricing.WarnStalePool))
}

func TestInspect_EpochSourceFailureFallsBack(t *testing.T) {
	f := newStubFetcher()
	pool := addr(1)
	spec := solUsdcSpec()
	spec.recentEpoch = 399
	f.add(pool, consts.RaydiumCLMMProgram, buildPoolData(spec))

	res := NewPoolInspector(f, newValidator(), WithEpochSource(stubEpochs{err: errors.New("rpc down")}, 10)).
		Inspect(context.Background(), pool)
	require.True(t, res.OK())
	assert.True(t, res.Report.HasWarning(pricing.WarnStalePool), "回退到固定阈值 400")
}

func TestInspectAll_SinkReceivesOnlySuccess(t *testing.T) {
	f := newStubFetcher()
	good, bad := addr(1), addr(2)
	f.add(good, consts.RaydiumCLMMProgram, buildPoolData(solUsdcSpec()))

	sink := &recordingSink{err: errors.New("kafka unavailable")}
	results := NewPoolInspector(f, newValidator(), WithSink(sink)).
		InspectAll(context.Background(), []types.Pubkey{good, bad})

	require.Len(t, sink.msgs, 1)
	assert.Equal(t, good, sink.msgs[0].Pool)
	assert.Same(t, results[0].Report, sink.msgs[0].Report)
	assert.True(t, results[0].OK(), "推送失败不影响结果")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", fetcher.ErrTransport), KindTransport},
		{fetcher.ErrAccountNotFound, KindTransport},
		{fmt.Errorf("x: %w", layout.ErrTooShort), KindTooShort},
		{layout.ErrFieldDecode, KindFieldDecode},
		{pricing.ErrWrongProgramOwner, KindWrongProgramOwner},
		{pricing.ErrUnexpectedTradingPair, KindUnexpectedTradingPair},
		{pricing.ErrUnexpectedDiscriminator, KindUnexpectedDiscriminator},
		{pricing.ErrZeroSqrtPrice, KindZeroSqrtPrice},
		{errors.New("other"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "err=%v", tt.err)
	}
}

func TestPrintResult(t *testing.T) {
	f := newStubFetcher()
	pool := addr(1)
	spec := solUsdcSpec()
	spec.status = 4
	f.add(pool, consts.RaydiumCLMMProgram, buildPoolData(spec))
	res := NewPoolInspector(f, newValidator()).Inspect(context.Background(), pool)
	require.True(t, res.OK())

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "账户数据长度: 1544")
	assert.Contains(t, out, "代币对: SOL/USDC (AB)")
	assert.Contains(t, out, "当前价格: 150.0000 USDC per SOL")
	assert.Contains(t, out, "池状态: 4")
	assert.Contains(t, out, "警告[pool_paused]")

	buf.Reset()
	PrintResult(&buf, Result{Address: pool, Err: fmt.Errorf("%w: owner=x", pricing.ErrWrongProgramOwner)})
	assert.True(t, strings.HasPrefix(buf.String(), "pool "+pool.String()+" failed [WrongProgramOwner]: "))
}

func TestWatchService_RunOnceAndStop(t *testing.T) {
	f := newStubFetcher()
	good, missing := addr(1), addr(2)
	f.add(good, consts.RaydiumCLMMProgram, buildPoolData(solUsdcSpec()))

	var buf syncBuffer
	inspector := NewPoolInspector(f, newValidator(), WithWorkers(2))
	svc := NewWatchService(inspector, []types.Pubkey{good, missing}, 10*time.Millisecond, &buf)

	assert.Equal(t, 1, svc.RunOnce())

	done := make(chan struct{})
	go func() {
		svc.Start()
		close(done)
	}()
	require.Eventually(t, func() bool { return f.calls.Load() >= 8 }, 2*time.Second, 5*time.Millisecond)

	svc.Stop()
	svc.Stop() // 重复 Stop 不会 panic
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.Contains(t, buf.String(), "failed [TransportError]")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
