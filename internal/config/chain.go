package config

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
)

const (
	defaultChainRPCHost      = "127.0.0.1:27486"
	defaultChainRPCUser      = "user"
	defaultChainRPCPass      = "pass"
	defaultMaxRetryTimes     = 5
	defaultRetryInterval     = 500 * time.Millisecond
	defaultRequestsPerSecond = 8
	defaultRequestsPerMinute = 300
	defaultRequestsPerHour   = 10000
	defaultBurst             = 16
)

// ChainConfig defines the connection, retry and rate-limit parameters for the
// chain daemon's JSON-RPC interface. All scan profiles share one client built
// from this config.
type ChainConfig struct {
	RPCHost           string        `mapstructure:"rpchost"`
	RPCUser           string        `mapstructure:"rpcuser"`
	RPCPass           string        `mapstructure:"rpcpass"`
	MaxRetryTimes     uint          `mapstructure:"maxretrytimes"`
	RetryInterval     time.Duration `mapstructure:"retryinterval"`
	RequestsPerSecond int           `mapstructure:"requestspersecond"`
	RequestsPerMinute int           `mapstructure:"requestsperminute"`
	RequestsPerHour   int           `mapstructure:"requestsperhour"`
	Burst             int           `mapstructure:"burst"`
}

func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		RPCHost:           defaultChainRPCHost,
		RPCUser:           defaultChainRPCUser,
		RPCPass:           defaultChainRPCPass,
		MaxRetryTimes:     defaultMaxRetryTimes,
		RetryInterval:     defaultRetryInterval,
		RequestsPerSecond: defaultRequestsPerSecond,
		RequestsPerMinute: defaultRequestsPerMinute,
		RequestsPerHour:   defaultRequestsPerHour,
		Burst:             defaultBurst,
	}
}

func (cfg *ChainConfig) ToConnConfig() *rpcclient.ConnConfig {
	return &rpcclient.ConnConfig{
		Host:                 cfg.RPCHost,
		User:                 cfg.RPCUser,
		Pass:                 cfg.RPCPass,
		DisableTLS:           true,
		DisableConnectOnNew:  true,
		DisableAutoReconnect: false,
		// post mode works with any bitcoind-derived daemon and keeps the
		// client free of websocket notification state
		HTTPPostMode: true,
	}
}

func (cfg *ChainConfig) Validate() error {
	if cfg.RPCHost == "" {
		return fmt.Errorf("RPC host cannot be empty")
	}
	if cfg.RPCUser == "" {
		return fmt.Errorf("RPC user cannot be empty")
	}
	if cfg.RPCPass == "" {
		return fmt.Errorf("RPC password cannot be empty")
	}

	if cfg.MaxRetryTimes <= 0 {
		return fmt.Errorf("max retry times should be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("retry interval should be positive")
	}

	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second should be positive")
	}
	if cfg.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute should be positive")
	}
	if cfg.RequestsPerHour <= 0 {
		return fmt.Errorf("requests per hour should be positive")
	}
	if cfg.Burst <= 0 {
		return fmt.Errorf("burst should be positive")
	}

	return nil
}
