// Package config loads the YAML configuration that parameterizes every
// pipeline stage, following the teacher's single-struct-with-nested-tags
// convention (cwsl/ka9q_ubersdr's config.go).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document. Every nested struct mirrors one
// pipeline component from SPEC_FULL.md §2.
type Config struct {
	Ingest   IngestConfig   `yaml:"ingest"`
	Detector DetectorConfig `yaml:"detector"`
	Downmix  DownmixConfig  `yaml:"downmix"`
	Symbol   SymbolConfig   `yaml:"symbol"`
	Queues   QueueConfig    `yaml:"queues"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Logging  LoggingConfig  `yaml:"logging"`
	Wisdom   WisdomConfig   `yaml:"wisdom"`
}

// IngestConfig selects and parameterizes the sample source (§4.A).
type IngestConfig struct {
	Source        string  `yaml:"source"` // "file" or "rtp"
	Path          string  `yaml:"path"`
	Format        string  `yaml:"format"` // "int8", "int16", "float32"
	SampleRate    float64 `yaml:"sample_rate"`
	CenterFreqHz  float64 `yaml:"center_freq_hz"`
	BatchSamples  int     `yaml:"batch_samples"`
	RTPMulticast  string  `yaml:"rtp_multicast"` // "239.1.2.3:5004"
	RTPPayloadFmt string  `yaml:"rtp_payload_format"`
}

// DetectorConfig parameterizes the burst detector (§4.B).
type DetectorConfig struct {
	FFTSize          int     `yaml:"fft_size"` // 0 = derive from sample rate
	ThresholdDB      float64 `yaml:"threshold_db"`
	HistorySize      int     `yaml:"history_size"`
	BurstWidthHz     float64 `yaml:"burst_width_hz"`
	MaxBursts        int     `yaml:"max_bursts"` // 0 = derive
	MaxBurstLenMs    float64 `yaml:"max_burst_len_ms"`
	PreLenSamples    int     `yaml:"pre_len_samples"` // 0 = derive (2*fft_size)
	PostLenMs        float64 `yaml:"post_len_ms"`
	RingBufferSecMin float64 `yaml:"ringbuffer_seconds_min"`
}

// DownmixConfig parameterizes the downmix engine (§4.C).
type DownmixConfig struct {
	Workers             int     `yaml:"workers"`
	OutputSampleRate     float64 `yaml:"output_sample_rate"`
	SearchDepth          int     `yaml:"search_depth"`
	PreStartUs           float64 `yaml:"pre_start_us"`
	HandleMultipleFrames bool    `yaml:"handle_multiple_frames"` // reserved, unused (SPEC_FULL.md §9)
}

// SymbolConfig parameterizes symbol recovery (§4.D).
type SymbolConfig struct {
	GardnerEnabled bool    `yaml:"gardner_enabled"`
	PLLAlpha       float64 `yaml:"pll_alpha"`
	GardnerKp      float64 `yaml:"gardner_kp"`
	GardnerKi      float64 `yaml:"gardner_ki"`
}

// QueueConfig sets the three bounded-queue depths (§5).
type QueueConfig struct {
	SamplesDepth int `yaml:"samples_depth"`
	BurstDepth   int `yaml:"burst_depth"`
	FrameDepth   int `yaml:"frame_depth"`
}

// SinksConfig toggles the optional FrameSink implementations (§6).
type SinksConfig struct {
	FileInfo string     `yaml:"file_info"` // overrides the auto-generated "i-<epoch>-t1"
	MQTT     MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the optional alert publisher.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig controls verbosity; this core never uses anything beyond
// the standard library "log" package (SPEC_FULL.md §1).
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// WisdomConfig configures the FFT-plan-size warm cache (§6).
type WisdomConfig struct {
	Path string `yaml:"path"`
}

// Default returns a Config with every field the spec names a default for
// already applied.
func Default() Config {
	return Config{
		Ingest: IngestConfig{
			Source:       "file",
			Format:       "int8",
			SampleRate:   10_000_000,
			BatchSamples: 32768,
		},
		Detector: DetectorConfig{
			ThresholdDB:      16,
			HistorySize:      512,
			BurstWidthHz:     40_000,
			MaxBurstLenMs:    90,
			PostLenMs:        16,
			RingBufferSecMin: 2,
		},
		Downmix: DownmixConfig{
			Workers:          4,
			OutputSampleRate: 250_000,
			SearchDepth:      1 << 20,
			PreStartUs:       100,
		},
		Symbol: SymbolConfig{
			GardnerEnabled: true,
			PLLAlpha:       0.2,
			GardnerKp:      0.02,
			GardnerKi:      2e-4,
		},
		Queues: QueueConfig{
			SamplesDepth: 4096,
			BurstDepth:   2048,
			FrameDepth:   512,
		},
	}
}

// Load reads filename, unmarshals it over Default(), and returns the
// merged configuration.
func Load(filename string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
