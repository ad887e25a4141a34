package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"positionScope/internal/chain"
	"positionScope/internal/simulation"
)

// EnvFiles are loaded in order before configuration is read. Variables already
// set in the environment, or by an earlier file, are never overwritten.
var EnvFiles = []string{".env.local", ".env"}

// rpcEnvAliases lets the RPC URL variables used by the web app configure the CLI too.
var rpcEnvAliases = map[uint64][]string{
	1:    {"MAINNET_RPC_URL", "NEXT_PUBLIC_MAINNET_RPC_URL"},
	8453: {"BASE_RPC_URL", "NEXT_PUBLIC_BASE_RPC_URL"},
	130:  {"UNICHAIN_RPC_URL", "NEXT_PUBLIC_UNICHAIN_RPC_URL"},
}

// ChainConfig holds per-chain overrides.
type ChainConfig struct {
	RPCURL          string
	PositionManager string
	PoolManager     string
}

// Config holds the settings shared by every command.
type Config struct {
	Chains     map[uint64]ChainConfig
	Simulation simulation.Config
	Timeout    time.Duration
	LogLevel   string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

// LoadDotEnv loads EnvFiles from the working directory, skipping missing ones.
func LoadDotEnv() error {
	for _, name := range EnvFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Registry builds the chain registry from the built-in deployments and configured overrides.
func (c Config) Registry() (*chain.Registry, error) {
	chains := make([]chain.Chain, 0, len(chain.DefaultChains))
	for _, entry := range chain.DefaultChains {
		override := c.Chains[entry.ID]
		entry.RPCURL = override.RPCURL
		if override.PositionManager != "" {
			addr, err := parseAddress(override.PositionManager)
			if err != nil {
				return nil, fmt.Errorf("chain %d position manager: %w", entry.ID, err)
			}
			entry.PositionManager = addr
		}
		if override.PoolManager != "" {
			addr, err := parseAddress(override.PoolManager)
			if err != nil {
				return nil, fmt.Errorf("chain %d pool manager: %w", entry.ID, err)
			}
			entry.PoolManager = addr
		}
		chains = append(chains, entry)
	}
	return chain.NewRegistry(chains), nil
}

// SetRPC overrides the RPC URL of one chain.
func (c *Config) SetRPC(chainID uint64, url string) {
	if c.Chains == nil {
		c.Chains = make(map[uint64]ChainConfig)
	}
	entry := c.Chains[chainID]
	entry.RPCURL = url
	c.Chains[chainID] = entry
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POSITIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("simulation.url", simulation.DefaultBaseURL)
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("log-level", "info")

	for _, entry := range chain.DefaultChains {
		key := chainKey(entry.ID, "rpc")
		envs := append([]string{envName(key)}, rpcEnvAliases[entry.ID]...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if err := v.BindEnv("simulation.api-key", "POSITIONS_SIMULATION_API_KEY", "UNISWAP_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env simulation.api-key: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
		for key, name := range map[string]string{
			"simulation.url":     "simulation-url",
			"simulation.api-key": "api-key",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		Chains: make(map[uint64]ChainConfig, len(chain.DefaultChains)),
		Simulation: simulation.Config{
			BaseURL: v.GetString("simulation.url"),
			APIKey:  v.GetString("simulation.api-key"),
			Headers: getStringMap(v, "simulation.headers"),
		},
		Timeout:  v.GetDuration("timeout"),
		LogLevel: v.GetString("log-level"),
	}
	cfg.Simulation.Timeout = cfg.Timeout

	for _, entry := range chain.DefaultChains {
		cfg.Chains[entry.ID] = ChainConfig{
			RPCURL:          chainString(v, entry, "rpc"),
			PositionManager: chainString(v, entry, "position-manager"),
			PoolManager:     chainString(v, entry, "pool-manager"),
		}
	}
	return cfg
}

// chainString reads chains.<id>.<field>, falling back to chains.<name>.<field>.
func chainString(v *viper.Viper, entry chain.Chain, field string) string {
	if s := strings.TrimSpace(v.GetString(chainKey(entry.ID, field))); s != "" {
		return s
	}
	return strings.TrimSpace(v.GetString("chains." + entry.Name + "." + field))
}

func chainKey(chainID uint64, field string) string {
	return "chains." + strconv.FormatUint(chainID, 10) + "." + field
}

func envName(key string) string {
	return "POSITIONS_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
