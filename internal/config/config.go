package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lighter-sign/bridge/internal/app/clientreg"
)

const defaultSignerDir = "signers"

// Config 描述 signer bridge 的运行配置。所有字段都可以通过
// SIGNER_BRIDGE_* 环境变量覆盖文件内容。
type Config struct {
	// SignerLibrary 直接指定动态库路径；为空时在 SignerDir 下按
	// 平台解析文件名。
	SignerLibrary string `yaml:"signerLibrary"`
	SignerDir     string `yaml:"signerDir"`
	// StubBackend 为 true 时不加载动态库，使用占位 backend。
	StubBackend bool `yaml:"stubBackend"`

	// Listen 为空时只服务 stdin/stdout。
	Listen      string `yaml:"listen"`
	MetricsAddr string `yaml:"metricsAddr"`
	MaxPending  int    `yaml:"maxPending"`

	Clients []ClientEntry `yaml:"clients"`
}

// ClientEntry 是配置文件预置的一条客户端配置，字段名与 wire 协议
// 的参数名保持一致。
type ClientEntry struct {
	APIKeyIndex  int    `yaml:"apiKeyIndex"`
	BaseURL      string `yaml:"baseUrl"`
	PrivateKey   string `yaml:"privateKey"`
	ChainID      int    `yaml:"chainId"`
	AccountIndex int64  `yaml:"accountIndex"`
}

// Load 读取 YAML 配置文件并应用环境变量覆盖。path 为空时跳过文件，
// 仅使用默认值与环境变量。
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg.normalize(), nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SIGNER_BRIDGE_LIBRARY"); v != "" {
		c.SignerLibrary = v
	}
	if v := os.Getenv("SIGNER_BRIDGE_DIR"); v != "" {
		c.SignerDir = v
	}
	if v := os.Getenv("SIGNER_BRIDGE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SIGNER_BRIDGE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("SIGNER_BRIDGE_MAX_PENDING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxPending = n
		}
	}
	if v := os.Getenv("SIGNER_BRIDGE_STUB"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StubBackend = b
		}
	}
}

func (c Config) validate() error {
	seen := make(map[int]struct{}, len(c.Clients))
	for _, entry := range c.Clients {
		if entry.APIKeyIndex < 0 {
			return fmt.Errorf("client entry: negative apiKeyIndex %d", entry.APIKeyIndex)
		}
		if _, dup := seen[entry.APIKeyIndex]; dup {
			return fmt.Errorf("client entry: duplicate apiKeyIndex %d", entry.APIKeyIndex)
		}
		seen[entry.APIKeyIndex] = struct{}{}
		if entry.BaseURL == "" || entry.PrivateKey == "" {
			return fmt.Errorf("client entry %d: baseUrl and privateKey are required", entry.APIKeyIndex)
		}
	}
	return nil
}

func (c Config) normalize() Config {
	cfg := c
	if cfg.SignerDir == "" {
		cfg.SignerDir = defaultSignerDir
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 256
	}
	return cfg
}

// SeedEntries 把预置客户端配置转换为 registry 的 Seed 输入。
func (c Config) SeedEntries() []clientreg.SeedEntry {
	entries := make([]clientreg.SeedEntry, 0, len(c.Clients))
	for _, entry := range c.Clients {
		entries = append(entries, clientreg.SeedEntry{
			APIKeyIndex: entry.APIKeyIndex,
			Config: clientreg.Config{
				BaseURL:      entry.BaseURL,
				PrivateKey:   entry.PrivateKey,
				ChainID:      entry.ChainID,
				AccountIndex: entry.AccountIndex,
			},
		})
	}
	return entries
}
