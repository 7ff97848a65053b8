package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sol "candy-drop/pkg/solana"
)

// Config holds all configuration parameters for the application
type Config struct {
	SolanaRpcURL        string        `yaml:"rpc_url"`
	SolanaWsURL         string        `yaml:"ws_url"`
	CandyMachineID      string        `yaml:"candy_machine_id"`
	CandyMachineConfig  string        `yaml:"candy_machine_config"`
	TreasuryAddress     string        `yaml:"treasury_address"`
	ProgramID           string        `yaml:"program_id"`
	WalletPrivateKey    string        `yaml:"-"` // environment only
	WalletKeypair       string        `yaml:"wallet_keypair"`
	DataDir             string        `yaml:"data_dir"`
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`
	RefreshInterval     time.Duration `yaml:"refresh_interval"`
	MetadataRPS         float64       `yaml:"metadata_rps"`
	HTTPTimeout         time.Duration `yaml:"http_timeout"`
	DisplayTimezone     string        `yaml:"display_timezone"`
	Debug               bool          `yaml:"debug"`
}

// Chain is the parsed set of on-chain identities
type Chain struct {
	CandyMachine solana.PublicKey
	// Config and Treasury are zero when not configured; they can be read
	// from the candy machine account instead
	Config    solana.PublicKey
	Treasury  solana.PublicKey
	ProgramID solana.PublicKey
}

var ErrMissingCandyMachine = errors.New("CANDY_MACHINE_ID is not set")

func DefaultConfig() *Config {
	return &Config{
		SolanaRpcURL:        "https://api.devnet.solana.com",
		ProgramID:           sol.CandyMachineProgramID.String(),
		DataDir:             "./data",
		ConfirmationTimeout: 60 * time.Second,
		RefreshInterval:     30 * time.Second,
		MetadataRPS:         5,
		HTTPTimeout:         15 * time.Second,
		DisplayTimezone:     "Local",
	}
}

// LoadEnvFiles reads .env style files in order, later files overriding
// earlier ones. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for i, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		var err error
		if i == 0 {
			err = godotenv.Load(path)
		} else {
			err = godotenv.Overload(path)
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads an optional YAML file over the defaults, then applies the
// environment. An empty path or a missing file means defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(cfg.DataDir, "~") {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, cfg.DataDir[1:])
	}
	if cfg.SolanaWsURL == "" {
		cfg.SolanaWsURL = websocketURL(cfg.SolanaRpcURL)
	}

	return cfg, nil
}

// applyEnv overlays environment variables on top of config values. The
// REACT_APP_ names are accepted so an existing front-end .env works as is.
func (c *Config) applyEnv() error {
	c.SolanaRpcURL = getEnv("SOLANA_RPC_URL", getEnv("REACT_APP_SOLANA_RPC_HOST", c.SolanaRpcURL))
	c.SolanaWsURL = getEnv("SOLANA_WS_URL", c.SolanaWsURL)
	c.CandyMachineID = getEnv("CANDY_MACHINE_ID", getEnv("REACT_APP_CANDY_MACHINE_ID", c.CandyMachineID))
	c.CandyMachineConfig = getEnv("CANDY_MACHINE_CONFIG", getEnv("REACT_APP_CANDY_MACHINE_CONFIG", c.CandyMachineConfig))
	c.TreasuryAddress = getEnv("TREASURY_ADDRESS", getEnv("REACT_APP_TREASURY_ADDRESS", c.TreasuryAddress))
	c.ProgramID = getEnv("CANDY_MACHINE_PROGRAM_ID", c.ProgramID)
	c.WalletPrivateKey = getEnv("WALLET_PRIVATE_KEY", c.WalletPrivateKey)
	c.WalletKeypair = getEnv("WALLET_KEYPAIR", c.WalletKeypair)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.ConfirmationTimeout = parseEnvDuration("CONFIRMATION_TIMEOUT", c.ConfirmationTimeout)
	c.RefreshInterval = parseEnvDuration("REFRESH_INTERVAL", c.RefreshInterval)
	c.HTTPTimeout = parseEnvDuration("HTTP_TIMEOUT", c.HTTPTimeout)
	c.DisplayTimezone = getEnv("DISPLAY_TIMEZONE", c.DisplayTimezone)
	c.Debug = getEnvBool("DEBUG", c.Debug)

	rps := getEnv("METADATA_RPS", "")
	if rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("failed to parse METADATA_RPS: %w", err)
		}
		c.MetadataRPS = value
	}
	return nil
}

// Chain parses the configured addresses. The candy machine id is required.
func (c *Config) Chain() (*Chain, error) {
	if c.CandyMachineID == "" {
		return nil, ErrMissingCandyMachine
	}

	chain := &Chain{}
	fields := []struct {
		name     string
		value    string
		required bool
		dst      *solana.PublicKey
	}{
		{"CANDY_MACHINE_ID", c.CandyMachineID, true, &chain.CandyMachine},
		{"CANDY_MACHINE_CONFIG", c.CandyMachineConfig, false, &chain.Config},
		{"TREASURY_ADDRESS", c.TreasuryAddress, false, &chain.Treasury},
		{"CANDY_MACHINE_PROGRAM_ID", c.ProgramID, true, &chain.ProgramID},
	}
	for _, f := range fields {
		if f.value == "" {
			if f.required {
				return nil, fmt.Errorf("%s is not set", f.name)
			}
			continue
		}
		key, err := solana.PublicKeyFromBase58(f.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.name, f.value, err)
		}
		*f.dst = key
	}
	return chain, nil
}

// Validate checks everything an on-chain command needs. Only the candy
// machine id is required: the config and treasury accounts may be left unset,
// in which case they are read from the candy machine account on each refresh
// and a mint is refused until they are known.
func (c *Config) Validate() error {
	if c.SolanaRpcURL == "" {
		return errors.New("SOLANA_RPC_URL is not set")
	}
	if _, err := c.Chain(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ConfirmationTimeout <= 0 {
		return fmt.Errorf("confirmation timeout must be positive, got %s", c.ConfirmationTimeout)
	}
	return nil
}

// Location is the time zone go-live instants are displayed in
func (c *Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" || c.DisplayTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// DBPath returns the full path to the SQLite database file
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "candydrop.db")
}

func (c *Config) JournalDir() string {
	return filepath.Join(c.DataDir, "journal")
}

func websocketURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	}
	return rpcURL
}

// Helper functions for working with environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func parseEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
