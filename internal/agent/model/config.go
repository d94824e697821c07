package model

// ================ Config ================

// PlannerConfig bounds the per-turn planner runtime.
type PlannerConfig struct {
	MaxCallsPerTurn int `envconfig:"PLANNER_MAX_CALLS_PER_TURN" default:"4"`
	TimeoutSec      int `envconfig:"PLANNER_TIMEOUT_SEC" default:"8"`
}

// LLMConfig selects and tunes the structured model backend.
type LLMConfig struct {
	Provider    string  `envconfig:"PLANNER_LLM_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0.0"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"2000"`
	CacheSize   int     `envconfig:"LLM_CACHE_SIZE" default:"64"`
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
}

// EventsConfig tunes the per-session event broker and its SSE surface.
type EventsConfig struct {
	MaxBacklog     int  `envconfig:"EVENTS_MAX_BACKLOG" default:"200"`
	HeartbeatSec   int  `envconfig:"EVENTS_HEARTBEAT_SEC" default:"10"`
	ChannelTTLMin  int  `envconfig:"EVENTS_CHANNEL_TTL_MIN" default:"60"`
	JanitorEnabled bool `envconfig:"EVENTS_JANITOR_ENABLED" default:"true"`
	EnableSSE      bool `envconfig:"ENABLE_SSE" default:"true"`
}

// SessionConfig selects the conversation state store.
type SessionConfig struct {
	Provider string `envconfig:"SESSION_STORE_PROVIDER" default:"memory"`
	TTL      string `envconfig:"SESSION_TTL" default:"15m"`
}

// ToolsConfig selects the capability providers.
type ToolsConfig struct {
	CalcMode        string `envconfig:"CALC_TOOL_MODE" default:"local"`
	CalcHTTPBaseURL string `envconfig:"CALC_HTTP_BASE_URL"`
	ProductProvider string `envconfig:"PRODUCT_SEARCH_PROVIDER" default:"memory"`
	OutletProvider  string `envconfig:"OUTLET_QUERY_PROVIDER" default:"memory"`
}
