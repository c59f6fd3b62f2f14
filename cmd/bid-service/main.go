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

	"dao-auction/internal/api/handlers"
	"dao-auction/internal/config"
	"dao-auction/internal/domain"
	"dao-auction/internal/infrastructure/chain"
	"dao-auction/internal/infrastructure/mysql"
	redisinfra "dao-auction/internal/infrastructure/redis"
	ws "dao-auction/internal/infrastructure/websocket"
	"dao-auction/internal/services"
	"dao-auction/pkg/logger"
	"dao-auction/pkg/utils"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting Bid Service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db := utils.InitializeMysql(cfg, log, ctx)
	defer db.Close()
	log.Info("Connected to MySQL")

	// Initialize chain clients
	rpcClient, err := rpc.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Error("Failed to connect to chain RPC", "url", cfg.Chain.RPCURL, "error", err)
		os.Exit(1)
	}
	ethClient := ethclient.NewClient(rpcClient)

	reader := chain.NewAuctionHouseReader(rpcClient, cfg.Chain.AuctionHouseAddress)

	if cfg.Chain.PrivateKey == "" {
		log.Error("Bidder private key is required for the bid service")
		os.Exit(1)
	}
	submitter, err := chain.NewAuctionHouseSubmitter(
		ethClient, cfg.Chain.AuctionHouseAddress, cfg.Chain.PrivateKey, cfg.Chain.ChainID, log)
	if err != nil {
		log.Error("Failed to initialize transaction submitter", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and caches
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	queryCache := redisinfra.NewQueryCache(rdb, cfg.Cache.BidListTTL, cfg.Cache.AverageBidTTL)

	// Initialize services
	statsService := services.NewStatsService(auctionRepo, queryCache, log)
	bidQuery := services.NewBidQueryService(bidRepo, queryCache, log)
	bidService := services.NewBidService(reader, submitter, statsService, queryCache, log)

	// WebSocket feed: fan indexed auction events out to subscribers
	connManager := ws.NewConnectionManager(log)
	wsHandler := ws.NewHandler(connManager, log)

	subscriber := redisinfra.NewEventSubscriber(rdb, log)
	go func() {
		err := subscriber.SubscribeToBidEvents(context.Background(), func(event *domain.BidEvent) error {
			connManager.BroadcastToFeed(event.TokenID, event)
			connManager.BroadcastToFeed("all", event)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscription ended", "error", err)
		}
	}()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	// Initialize handlers
	bidHandler := handlers.NewBidHandler(bidService, auctionRepo,
		cfg.Chain.ChainID, cfg.Chain.TokenAddress, log)
	auctionHandler := handlers.NewAuctionHandler(reader, auctionRepo, bidQuery, statsService,
		cfg.Chain.ChainID, cfg.Chain.TokenAddress, log)

	// API routes
	api := e.Group("/api/v1")
	api.GET("/auctions/:tokenId", auctionHandler.GetAuction)
	api.GET("/auctions/:tokenId/bids", auctionHandler.ListBids)
	api.POST("/auctions/:tokenId/bids", bidHandler.PlaceBid)
	api.DELETE("/auctions/:tokenId/bids/pending", bidHandler.CancelPendingBid)
	api.GET("/stats/average-winning-bid", auctionHandler.GetAverageWinningBid)

	e.GET("/ws/auctions/:tokenId", wsHandler.HandleFeed)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bid-service",
			"timestamp": time.Now().Format(time.RFC3339),
			"chain_id":  cfg.Chain.ChainID,
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting bid service server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bid service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bid service stopped")
}
