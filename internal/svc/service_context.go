package svc

import (
	"clmm-price-sol/internal/config"
	"clmm-price-sol/internal/fetcher"
	"clmm-price-sol/internal/logic/pricing"
	"clmm-price-sol/internal/mq"
	"clmm-price-sol/internal/service"
	"clmm-price-sol/pkg/logger"
)

// ServiceContext 包含检查服务所需的资源
type ServiceContext struct {
	Config    *config.InspectorConfig
	Resolved  *config.Resolved
	Fetcher   *fetcher.RpcFetcher
	Validator *pricing.Validator
	Sink      *mq.KafkaReportSink // 未配置 Kafka 或初始化失败时为 nil
	Inspector *service.PoolInspector
}

// NewServiceContext 解析配置并组装 fetcher、validator 与 inspector
func NewServiceContext(c *config.InspectorConfig) (*ServiceContext, error) {
	resolved, err := c.Resolve()
	if err != nil {
		return nil, err
	}

	ctx := &ServiceContext{
		Config:    c,
		Resolved:  resolved,
		Fetcher:   fetcher.NewRpcFetcher(c.Rpc.Endpoint, resolved.RpcTimeout),
		Validator: pricing.NewValidator(resolved.ProgramID, resolved.Pair, resolved.Options),
	}

	opts := []service.Option{service.WithWorkers(resolved.Workers)}
	if resolved.MaxEpochLag > 0 {
		opts = append(opts, service.WithEpochSource(ctx.Fetcher, resolved.MaxEpochLag))
	}

	// Kafka 只是旁路输出，初始化失败不影响检查
	if c.KafkaProducerConf.Enabled() {
		sink, err := mq.NewKafkaReportSink(c.KafkaProducerConf)
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败，不推送报告: %v", err)
		} else {
			ctx.Sink = sink
			opts = append(opts, service.WithSink(sink))
		}
	}

	ctx.Inspector = service.NewPoolInspector(ctx.Fetcher, ctx.Validator, opts...)

	logger.Infof("服务上下文初始化完成: pools=%d, endpoint=%s, workers=%d",
		len(resolved.Pools), c.Rpc.Endpoint, resolved.Workers)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Sink != nil {
		ctx.Sink.Close()
	}
}
