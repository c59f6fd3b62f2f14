package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dao-auction/internal/config"
	"dao-auction/internal/indexer"
	"dao-auction/internal/infrastructure/leader"
	"dao-auction/internal/infrastructure/mysql"
	redisinfra "dao-auction/internal/infrastructure/redis"
	"dao-auction/internal/services"
	"dao-auction/pkg/logger"
	"dao-auction/pkg/utils"

	"github.com/ethereum/go-ethereum/ethclient"
	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
)

const catchUpLookback = 1000 // blocks

func main() {
	log := logger.New()
	log.Info("Starting Auction Indexer")

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

	// Log subscriptions need the websocket endpoint
	ethClient, err := ethclient.DialContext(ctx, cfg.Chain.WSURL)
	if err != nil {
		log.Error("Failed to connect to chain WS", "url", cfg.Chain.WSURL, "error", err)
		os.Exit(1)
	}

	// Initialize repositories and caches
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	govRepo := mysql.NewMySQLGovernanceRepository(db)
	queryCache := redisinfra.NewQueryCache(rdb, cfg.Cache.BidListTTL, cfg.Cache.AverageBidTTL)
	publisher := redisinfra.NewEventPublisher(rdb)

	statsService := services.NewStatsService(auctionRepo, queryCache, log)

	idx, err := indexer.New(ethClient, auctionRepo, bidRepo, govRepo, queryCache, publisher,
		cfg.Chain.ChainID, cfg.Chain.TokenAddress,
		cfg.Chain.AuctionHouseAddress, cfg.Chain.GovernorAddress, log)
	if err != nil {
		log.Error("Failed to initialize indexer", "error", err)
		os.Exit(1)
	}

	// Leader election: only one instance consumes the log stream
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go runAsLeader(runCtx, idx, leaderElection, cfg.Instance.ID, log)

	// Periodic jobs: catch-up sweep and statistic refresh
	c := cron.New()
	c.AddFunc("@every 1m", func() {
		isLeader, err := leaderElection.IsLeader(runCtx, cfg.Instance.ID)
		if err != nil || !isLeader {
			return
		}
		if err := idx.CatchUp(runCtx, catchUpLookback); err != nil {
			log.Error("Catch-up sweep failed", "error", err)
		}
	})
	c.AddFunc("@every 5m", func() {
		if err := statsService.Refresh(runCtx, cfg.Chain.ChainID, cfg.Chain.TokenAddress); err != nil {
			log.Error("Average winning bid refresh failed", "error", err)
		}
	})
	c.Start()

	// Admin server
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"service":   "indexer",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		isLeader, _ := leaderElection.IsLeader(r.Context(), cfg.Instance.ID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"instance_id": cfg.Instance.ID,
			"leader":      isLeader,
			"chain_id":    cfg.Chain.ChainID,
		})
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting indexer admin server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Admin server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down indexer...")
	stop()
	c.Stop()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Admin server forced to shutdown", "error", err)
	}

	log.Info("Indexer stopped")
}

// runAsLeader keeps trying to acquire leadership and runs the log stream
// while held. A dropped subscription falls back to re-election.
func runAsLeader(ctx context.Context, idx *indexer.Indexer, election *leader.RedisLeaderElection,
	instanceID string, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		became, err := election.BecomeLeader(ctx, instanceID)
		if err != nil {
			log.Error("Failed to attempt leadership", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if !became {
			time.Sleep(10 * time.Second)
			continue
		}

		log.Info("Became indexer leader", "instance_id", instanceID)

		if err := idx.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Indexer run ended", "error", err)
		}

		if err := election.ReleaseLeadership(ctx, instanceID); err != nil {
			log.Error("Failed to release leadership", "error", err)
		}
		time.Sleep(5 * time.Second)
	}
}
