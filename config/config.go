package config

import (
	"time"

	"github.com/pkg/errors"
)

type AppMode int
type ScatterType int

const (
	NotDefined AppMode = iota
	ChurnMode          // handle construct/release churn on one shared object
	FanoutMode         // pooled packet buffers shared across consumers
)

const (
	NotDefinedScatterType ScatterType = iota
	RoundRobinScatterType
	ConcurrentScatterType
)

type Config struct {
	Mode           AppMode
	Workers        int
	Iterations     int // handles per churn worker
	Survivors      int // long-lived handles held through a churn run
	Packets        int // packets produced in a fanout run
	PacketSize     int
	PacketsPerBuf  int
	ChannelSize    int
	ScatterType    ScatterType
	ReportInterval time.Duration
	ListenAddr     string // pprof and metrics; empty disables
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode:           ChurnMode,
		Workers:        AvailableCPUs(),
		Iterations:     defaultIterations,
		Survivors:      defaultSurvivors,
		Packets:        defaultPackets,
		PacketSize:     defaultPacketSize,
		PacketsPerBuf:  defaultPacketsPerBuf,
		ChannelSize:    defaultChannelSize,
		ScatterType:    ConcurrentScatterType,
		ReportInterval: defaultReportInterval,
	}
}

func (c *Config) Validate() error {
	if c.Mode == NotDefined {
		return errors.New("mode not defined")
	}
	if c.Workers <= 0 {
		return errors.Errorf("invalid workers: %d", c.Workers)
	}
	if c.Iterations < 0 || c.Survivors < 0 || c.Packets < 0 {
		return errors.New("iterations, survivors and packets must not be negative")
	}
	if c.ChannelSize < 0 {
		return errors.Errorf("invalid channel size: %d", c.ChannelSize)
	}
	if c.Mode == FanoutMode {
		if c.ScatterType == NotDefinedScatterType {
			return errors.New("scatter type not defined")
		}
		if c.PacketSize <= 0 || c.PacketsPerBuf <= 0 {
			return errors.New("packet size and packets per buffer must be positive")
		}
		if c.PacketsPerBuf*(c.PacketSize+packetHeaderSize) > bufferSize {
			return errors.Errorf("%d packets of %d bytes do not fit in one buffer", c.PacketsPerBuf, c.PacketSize)
		}
	}
	return nil
}

func ModeToString(mode AppMode) string {
	switch mode {
	case ChurnMode:
		return "churn"
	case FanoutMode:
		return "fanout"
	default:
		return "unknown"
	}
}

func ParseMode(mode string) (AppMode, error) {
	switch mode {
	case "churn":
		return ChurnMode, nil
	case "fanout":
		return FanoutMode, nil
	default:
		return NotDefined, errors.Errorf("invalid mode: %s", mode)
	}
}

func ScatterTypeToString(scatterType ScatterType) string {
	switch scatterType {
	case RoundRobinScatterType:
		return "round-robin"
	case ConcurrentScatterType:
		return "concurrent"
	default:
		return "unknown"
	}
}

func ParseScatterType(scatterType string) ScatterType {
	switch scatterType {
	case "round-robin":
		return RoundRobinScatterType
	case "concurrent":
		return ConcurrentScatterType
	default:
		return NotDefinedScatterType
	}
}
