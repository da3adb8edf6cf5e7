package clientreg

import "sync"

// Config 保存单个 API key index 对应的 signer 客户端配置。
type Config struct {
	BaseURL      string
	PrivateKey   string
	ChainID      int
	AccountIndex int64
}

// SeedEntry 表示配置文件预置的一条客户端配置。
type SeedEntry struct {
	APIKeyIndex int
	Config      Config
}

// Registry 记录每个 API key index 的配置与注册状态。配置和注册状态
// 彼此独立：覆盖配置不会清除已注册标记（见 ensureClient 的短路逻辑）。
type Registry struct {
	mu          sync.Mutex
	configs     map[int]Config
	initialized map[int]struct{}
}

// NewRegistry 创建空的 Registry。
func NewRegistry() *Registry {
	return &Registry{
		configs:     make(map[int]Config),
		initialized: make(map[int]struct{}),
	}
}

// Upsert 写入或覆盖某个 index 的配置，后写覆盖先写。
func (r *Registry) Upsert(apiKeyIndex int, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[apiKeyIndex] = cfg
}

// Lookup 返回某个 index 的配置，不存在时第二个返回值为 false。
func (r *Registry) Lookup(apiKeyIndex int) (Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[apiKeyIndex]
	return cfg, ok
}

// IsInitialized 返回该 index 是否已在 backend 完成注册。
func (r *Registry) IsInitialized(apiKeyIndex int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.initialized[apiKeyIndex]
	return ok
}

// MarkInitialized 记录该 index 已注册，重复调用是幂等的。
func (r *Registry) MarkInitialized(apiKeyIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized[apiKeyIndex] = struct{}{}
}

// Seed 批量写入预置配置。只写配置，不标记注册状态：注册标记必须
// 由一次成功的 backend create-client 调用产生。
func (r *Registry) Seed(entries []SeedEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		r.configs[entry.APIKeyIndex] = entry.Config
	}
}

// Len 返回当前持有配置的 index 数。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}
