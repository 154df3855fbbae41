package router

import (
	"context"
	"net/http"
	"time"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/handler"
	"github.com/blues/antugrow/internal/logic"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/gin-gonic/gin"
)

// HealthChecker 链连接健康状态
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// Services 路由依赖；Funding 与 Chain 为空时不注册链相关路由
type Services struct {
	Farmers  *logic.FarmerLogic
	Farms    *logic.FarmLogic
	Insights *logic.InsightLogic
	Analysis *logic.AnalysisLogic
	Funding  handler.FundingService
	Chain    HealthChecker
	Metrics  *metrics.Metrics
}

func Setup(cfg *config.Config, s Services) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "antugrow",
		}
		if s.Chain != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			chain := s.Chain.GetHealthStatus(ctx)
			if chain["client_status"] != "connected" {
				status["status"] = "degraded"
			}
			status["chain"] = chain
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// API版本组
	v1 := r.Group("/api/v1")
	{
		geoHandler := handler.NewGeoHandler()
		v1.POST("/geo/area", geoHandler.Area)

		if s.Funding != nil {
			fundingHandler := handler.NewFundingHandler(s.Funding)
			fundings := v1.Group("/fundings")
			{
				fundings.GET("", fundingHandler.GetFundings)
				fundings.POST("", fundingHandler.CreateFunding)
				fundings.POST("/refresh", fundingHandler.RefreshFundings)
				fundings.POST("/:ref/invest", fundingHandler.Invest)
				fundings.GET("/:ref/invest", fundingHandler.GetInvestment)
				fundings.DELETE("/:ref/invest", fundingHandler.CancelInvestment)
				fundings.POST("/:ref/release", fundingHandler.ReleaseFunds)
				fundings.POST("/:ref/harvest", fundingHandler.ReportHarvest)
				fundings.POST("/:ref/repay", fundingHandler.MakeRepayment)
			}
			wallet := v1.Group("/wallet/:address")
			{
				wallet.GET("/balance", fundingHandler.GetBalance)
				wallet.POST("/mint", fundingHandler.Mint)
				wallet.GET("/verified", fundingHandler.GetVerification)
				wallet.POST("/verify", fundingHandler.VerifyFarmer)
			}
		}

		farmHandler := handler.NewFarmHandler(s.Farms, s.Insights, s.Analysis)
		profileHandler := handler.NewProfileHandler(s.Farmers, s.Insights)
		v1.GET("/stages", farmHandler.GetStages)

		user := v1.Group("", handler.SessionMiddleware(s.Farmers))
		{
			user.GET("/prices", profileHandler.GetPrices)

			authed := user.Group("", handler.RequireSession())
			authed.GET("/profile", profileHandler.GetProfile)
			authed.PUT("/profile", profileHandler.UpdateProfile)

			farms := authed.Group("/farms")
			{
				farms.POST("", farmHandler.CreateFarm)
				farms.GET("", farmHandler.GetFarms)
				farms.GET("/:id", farmHandler.GetFarm)
				farms.DELETE("/:id", farmHandler.DeleteFarm)
				farms.GET("/:id/geojson", farmHandler.GetFarmGeoJSON)
				farms.GET("/:id/parameters", farmHandler.GetFarmParameters)
				farms.GET("/:id/analysis", farmHandler.GetFarmAnalysis)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, "+handler.UserIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
