package main

import (
	"clmm-price-sol/internal/config"
	"clmm-price-sol/internal/service"
	"clmm-price-sol/internal/svc"
	"clmm-price-sol/pkg/logger"
	"flag"
	"fmt"
	zerosvc "github.com/zeromicro/go-zero/core/service"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
)

var configFile = flag.String("f", "etc/inspector.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, err := svc.NewServiceContext(c)
	if err != nil {
		logger.Errorf("服务上下文初始化失败: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	defer ctx.Close()

	resolved := ctx.Resolved
	watch := service.NewWatchService(ctx.Inspector, resolved.Pools, resolved.PollInterval, os.Stdout)

	// 单次模式：逐个输出后退出，单个池子失败不影响退出码
	if resolved.PollInterval <= 0 {
		watch.RunOnce()
		return
	}

	sg := zerosvc.NewServiceGroup()
	sg.Add(watch)

	// 等待退出信号
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Infof("Shutting down services...")
		sg.Stop()
	}()

	logger.Infof("Starting watch service, interval=%v", resolved.PollInterval)
	sg.Start()
}
