package restapi

import (
	"net/http/pprof"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires all routes onto a fresh Gin engine.
func SetupRouter(walletHandler *WalletHandler, stakingHandler *StakingHandler, zapLogger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog", stakingHandler.GetCatalogHandler)

		wallet := v1.Group("/wallet/:address", RequireHexAddress())
		{
			wallet.GET("/balances", walletHandler.GetBalancesHandler)
			wallet.GET("/transactions", walletHandler.GetTransactionsHandler)
			wallet.POST("/refresh", walletHandler.RefreshHandler)

			wallet.GET("/staking", stakingHandler.GetStakingHandler)
			wallet.POST("/staking/stake", stakingHandler.StakeHandler)
			wallet.POST("/staking/unstake", stakingHandler.UnstakeHandler)
			wallet.POST("/staking/claim", stakingHandler.ClaimHandler)
		}
	}

	router.GET("/health", walletHandler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	}

	return router
}

// ZapLoggerMiddleware logs each request through zap with method, path,
// status and latency.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
