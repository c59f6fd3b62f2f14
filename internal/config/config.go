package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type ChainConfig struct {
	RPCURL              string `mapstructure:"rpc_url"`
	WSURL               string `mapstructure:"ws_url"`
	ChainID             int64  `mapstructure:"chain_id"`
	AuctionHouseAddress string `mapstructure:"auction_house_address"`
	TokenAddress        string `mapstructure:"token_address"`
	GovernorAddress     string `mapstructure:"governor_address"`
	// Hex-encoded private key of the bidding account. Empty disables the
	// transaction submitter (read-only deployment).
	PrivateKey string `mapstructure:"private_key"`
}

type CacheConfig struct {
	BidListTTL    time.Duration `mapstructure:"bid_list_ttl"`
	AverageBidTTL time.Duration `mapstructure:"average_bid_ttl"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "dao_user:dao_pass@tcp(localhost:3306)/dao_auction?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("chain.rpc_url", "http://localhost:8545")
	viper.SetDefault("chain.ws_url", "ws://localhost:8546")
	viper.SetDefault("chain.chain_id", 1)
	viper.SetDefault("cache.bid_list_ttl", time.Minute)
	viper.SetDefault("cache.average_bid_ttl", 10*time.Minute)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("instance.id", "bid-service-1")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/dao-auction/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("chain.rpc_url", "CHAIN_RPC_URL")
	viper.BindEnv("chain.ws_url", "CHAIN_WS_URL")
	viper.BindEnv("chain.chain_id", "CHAIN_ID")
	viper.BindEnv("chain.auction_house_address", "AUCTION_HOUSE_ADDRESS")
	viper.BindEnv("chain.token_address", "TOKEN_ADDRESS")
	viper.BindEnv("chain.governor_address", "GOVERNOR_ADDRESS")
	viper.BindEnv("chain.private_key", "BIDDER_PRIVATE_KEY")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Chain: %d @ %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Chain.ChainID,
		c.Chain.RPCURL,
		c.Instance.ID,
	)
}
