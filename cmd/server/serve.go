package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/antugrow/internal/chain"
	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/database"
	"github.com/blues/antugrow/internal/funding"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/logic"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/provider"
	"github.com/blues/antugrow/internal/repository"
	"github.com/blues/antugrow/internal/router"
	"github.com/blues/antugrow/internal/task"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled jobs",
		RunE:  serveRun,
	}
}

func serveRun(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := metrics.New()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	source := provider.NewAgroClient(cfg.Provider, m)
	farmerRepo := repository.NewFarmerRepository(db)
	farms := logic.NewFarmLogic(repository.NewFarmRepository(db), farmerRepo, source, m)
	insights := logic.NewInsightLogic(farms, source)
	defer insights.Close()
	analysis := logic.NewAnalysisLogic(farms, provider.NewOpenAIClient(cfg.OpenAI, m))
	defer analysis.Close()

	services := router.Services{
		Farmers:  logic.NewFarmerLogic(farmerRepo),
		Farms:    farms,
		Insights: insights,
		Analysis: analysis,
		Metrics:  m,
	}
	jobs := []task.Job{
		task.NewWeatherRefreshJob(farms, seconds(cfg.Task.WeatherInterval), cfg.Task.WeatherWorkers, m),
	}

	// 链未配置时只提供农场相关接口
	manager, fundingService, err := initFunding(cfg, m)
	if err != nil {
		logger.Error("Funding disabled: %v", err)
	}
	if manager != nil {
		defer manager.Close()
		services.Funding = fundingService
		services.Chain = manager
		jobs = append(jobs, task.NewFundingRefreshJob(fundingService, seconds(cfg.Task.FundingInterval), m))

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if _, err := fundingService.Refresh(ctx); err != nil {
			logger.Warn("Initial funding refresh failed: %v", err)
		}
		cancel()
	}

	// 启动定时任务
	tasks, err := task.NewManager(jobs...)
	if err != nil {
		return err
	}
	tasks.Start()
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case sig := <-quit:
		logger.Info("Received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// initFunding 连接链节点并创建众筹服务；未配置 RPC 时返回 nil
func initFunding(cfg *config.Config, m *metrics.Metrics) (*chain.Manager, *funding.Service, error) {
	if cfg.Chain.RpcUrl == "" {
		logger.Warn("No chain RPC configured, funding routes disabled")
		return nil, nil, nil
	}

	manager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize chain manager: %w", err)
	}

	var contracts funding.Contracts
	for name, target := range map[string]**chain.Contract{
		chain.FactoryContract: &contracts.Factory,
		chain.TokenContract:   &contracts.Token,
		chain.FundingContract: &contracts.Funding,
	} {
		contract, err := manager.GetContract(name)
		if err != nil {
			manager.Close()
			return nil, nil, err
		}
		*target = contract
	}

	client := manager.Client()
	if !client.CanSign() {
		logger.Warn("No signing key configured, funding transactions are disabled")
	}
	return manager, funding.NewService(client, client, contracts, client.Address(), m), nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		n = 60
	}
	return time.Duration(n) * time.Second
}
