package types

// Config represents the overall application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Ingest    IngestConfig    `yaml:"ingest" json:"ingest"`
	Playback  PlaybackConfig  `yaml:"playback" json:"playback"`
	Audio     AudioConfig     `yaml:"audio" json:"audio"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
}

// ProvidersConfig holds the narration and extraction backend configuration
type ProvidersConfig struct {
	Synthesizer ProviderConfig `yaml:"synthesizer" json:"synthesizer"`
	Extractor   ProviderConfig `yaml:"extractor" json:"extractor"`
}

// ProviderConfig configures a generative backend endpoint
type ProviderConfig struct {
	Name       string            `yaml:"name" json:"name"`
	Endpoint   string            `yaml:"endpoint" json:"endpoint"`
	APIKey     string            `yaml:"api_key" json:"api_key"`
	Model      string            `yaml:"model" json:"model"`
	MaxRetries int               `yaml:"max_retries" json:"max_retries"`
	TimeoutSec int               `yaml:"timeout_sec" json:"timeout_sec"`
	Options    map[string]string `yaml:"options" json:"options"`
}

// IngestConfig holds the incremental-loading settings
type IngestConfig struct {
	DriverIntervalMs  int `yaml:"driver_interval_ms" json:"driver_interval_ms"`
	FailureBackoffSec int `yaml:"failure_backoff_sec" json:"failure_backoff_sec"`
	ProgressIncrement int `yaml:"progress_increment" json:"progress_increment"`
	ContinuationTail  int `yaml:"continuation_tail" json:"continuation_tail"`   // trailing segments passed as hint
	ChapterInterval   int `yaml:"chapter_interval" json:"chapter_interval"`     // rerun detection every N segments
}

// PlaybackConfig holds playback engine settings
type PlaybackConfig struct {
	LookaheadSegments int `yaml:"lookahead_segments" json:"lookahead_segments"`
	CacheCapacity     int `yaml:"cache_capacity" json:"cache_capacity"`
	WordTickMs        int `yaml:"word_tick_ms" json:"word_tick_ms"`
}

// AudioConfig holds output device settings
type AudioConfig struct {
	Backend    string `yaml:"backend" json:"backend"` // "portaudio" or "null"
	SampleRate int    `yaml:"sample_rate" json:"sample_rate"`
}
