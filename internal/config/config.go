package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig holds the sweep parameters and the simulation window.
type ExperimentConfig struct {
	MinNodes     int     `yaml:"min_nodes"`
	MaxNodes     int     `yaml:"max_nodes"`
	MaxPackets   int     `yaml:"max_packets"`
	IntervalMs   int     `yaml:"interval_ms"`
	StartTime    float64 `yaml:"start_time"`
	StopTime     float64 `yaml:"stop_time"`
	ArtifactsDir string  `yaml:"artifacts_dir"`
	Seed         int64   `yaml:"seed"`
}

// WirelessConfig holds the shared-medium model parameters.
type WirelessConfig struct {
	RangeM              float64 `yaml:"range_m"`
	BitrateMbps         float64 `yaml:"bitrate_mbps"`
	FrameErrorProb      float64 `yaml:"frame_error_prob"`
	QueueCap            int     `yaml:"queue_cap"`
	RTSCTSThreshold     int     `yaml:"rts_cts_threshold"`
	HeaderOverheadBytes int     `yaml:"header_overhead_bytes"`
}

// TrafficConfig holds the echo traffic parameters shared by every client.
type TrafficConfig struct {
	Port       uint16 `yaml:"port"`
	PacketSize int    `yaml:"packet_size"`
}

// GobConfig configures the gob snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection settings for the ClickHouse writer.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines one optional snapshot writer from the config file.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// LiveConfig configures the optional NATS frame-event feed.
type LiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the settings for the results API server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Experiment ExperimentConfig `yaml:"experiment"`
	Wireless   WirelessConfig   `yaml:"wireless"`
	Traffic    TrafficConfig    `yaml:"traffic"`
	Writers    []WriterDef      `yaml:"writers"`
	Live       LiveConfig       `yaml:"live"`
	API        APIConfig        `yaml:"api"`
}

// Default returns the built-in configuration: the 2..30 sweep, 512-byte
// requests on port 443 every 5 ms, and the [1s, 25s] window.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			MinNodes:     2,
			MaxNodes:     30,
			MaxPackets:   10,
			IntervalMs:   5,
			StartTime:    1.0,
			StopTime:     25.0,
			ArtifactsDir: ".",
			Seed:         1,
		},
		Wireless: WirelessConfig{
			RangeM:              30.0,
			BitrateMbps:         6.0,
			FrameErrorProb:      0.01,
			QueueCap:            50,
			RTSCTSThreshold:     1000,
			HeaderOverheadBytes: 64,
		},
		Traffic: TrafficConfig{
			Port:       443,
			PacketSize: 512,
		},
		Live: LiveConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "netsim.frames",
		},
		API: APIConfig{
			ListenAddr: ":8080",
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a
// Config struct. Values absent from the file keep their defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	e := c.Experiment
	if e.MinNodes < 1 {
		return fmt.Errorf("min_nodes must be at least 1, got %d", e.MinNodes)
	}
	if e.MaxNodes < e.MinNodes {
		return fmt.Errorf("max_nodes %d is below min_nodes %d", e.MaxNodes, e.MinNodes)
	}
	if e.MaxNodes > 254 {
		return fmt.Errorf("max_nodes %d exceeds the addressable subnet (254 hosts)", e.MaxNodes)
	}
	if e.MaxPackets < 0 {
		return fmt.Errorf("max_packets must not be negative, got %d", e.MaxPackets)
	}
	if e.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", e.IntervalMs)
	}
	if e.StartTime < 0 || e.StopTime <= e.StartTime {
		return fmt.Errorf("invalid simulation window [%v, %v]", e.StartTime, e.StopTime)
	}
	w := c.Wireless
	if w.RangeM <= 0 {
		return fmt.Errorf("range_m must be positive, got %v", w.RangeM)
	}
	if w.BitrateMbps <= 0 {
		return fmt.Errorf("bitrate_mbps must be positive, got %v", w.BitrateMbps)
	}
	if w.FrameErrorProb < 0 || w.FrameErrorProb >= 1 {
		return fmt.Errorf("frame_error_prob must be in [0, 1), got %v", w.FrameErrorProb)
	}
	if w.QueueCap <= 0 {
		return fmt.Errorf("queue_cap must be positive, got %d", w.QueueCap)
	}
	if c.Traffic.PacketSize <= 0 {
		return fmt.Errorf("packet_size must be positive, got %d", c.Traffic.PacketSize)
	}
	return nil
}
