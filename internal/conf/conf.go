package conf

// Bootstrap is the top-level service configuration, loaded from YAML.
type Bootstrap struct {
	Server     Server     `json:"server"`
	Data       Data       `json:"data"`
	Moderation Moderation `json:"moderation"`
}

// Server holds transport configuration.
type Server struct {
	HTTP HTTPServer `json:"http"`
}

// HTTPServer configures the HTTP listener.
type HTTPServer struct {
	Network        string `json:"network"`
	Addr           string `json:"addr"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
}

// Data holds storage and messaging configuration.
type Data struct {
	Database Database `json:"database"`
	Redis    Redis    `json:"redis"`
	NATS     NATS     `json:"nats"`
}

// Database configures the Postgres connection.
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
	Pool   Pool   `json:"pool"`
}

// Pool configures pgx connection pooling.
type Pool struct {
	MaxOpenConns           int32 `json:"max_open_conns"`
	MinIdleConns           int32 `json:"min_idle_conns"`
	MaxConnLifetimeMinutes int64 `json:"max_conn_lifetime_minutes"`
	MaxConnIdleTimeMinutes int64 `json:"max_conn_idle_time_minutes"`
}

// Redis configures the Redis connection.
type Redis struct {
	Network             string `json:"network"`
	Addr                string `json:"addr"`
	ReadTimeoutSeconds  int64  `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int64  `json:"write_timeout_seconds"`
}

// NATS configures the audit-stream publisher. An empty URL disables
// publishing.
type NATS struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// Moderation holds the pipeline configuration.
type Moderation struct {
	Abuse    Abuse    `json:"abuse"`
	Links    Links    `json:"links"`
	Delays   Delays   `json:"delays"`
	Platform Platform `json:"platform"`
}

// Abuse configures the remote abuse classifier.
type Abuse struct {
	Enabled         bool    `json:"enabled"`
	Threshold       float64 `json:"threshold"`
	APIKey          string  `json:"api_key"`
	Model           string  `json:"model"`
	BaseURL         string  `json:"base_url"`
	TimeoutSeconds  int64   `json:"timeout_seconds"`
	CacheTTLMinutes int64   `json:"cache_ttl_minutes"`
}

// Links tunes link-detection sensitivity. The disable flags default to
// the most aggressive setting.
type Links struct {
	WideWindow         int  `json:"wide_window"`
	DisableWideWindow  bool `json:"disable_wide_window"`
	DisableHindiPhrase bool `json:"disable_hindi_phrase"`
}

// Delays are the global auto-expiry delays in seconds. Zero disables
// the corresponding timer.
type Delays struct {
	EditSeconds    int64 `json:"edit_seconds"`
	MediaSeconds   int64 `json:"media_seconds"`
	StickerSeconds int64 `json:"sticker_seconds"`
}

// Platform configures the message-deletion API of the chat platform.
type Platform struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
}
