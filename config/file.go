package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// FileConfig is the on-disk form of Config, in YAML or JSON.
type FileConfig struct {
	Mode           string  `json:"mode"`
	Workers        *int    `json:"workers,omitempty"`
	Iterations     *int    `json:"iterations,omitempty"`
	Survivors      *int    `json:"survivors,omitempty"`
	Packets        *int    `json:"packets,omitempty"`
	PacketSize     *int    `json:"packet_size,omitempty"`
	PacketsPerBuf  *int    `json:"packets_per_buffer,omitempty"`
	ChannelSize    *int    `json:"channel_size,omitempty"`
	ScatterType    *string `json:"scatter_type,omitempty"`
	ReportInterval *string `json:"report_interval,omitempty"`
	ListenAddr     string  `json:"listen_addr,omitempty"`
}

// mirrors packet.HEADER_SIZE and buffer.BUFFER_SIZE without importing them
const (
	packetHeaderSize = 8
	bufferSize       = 65535
)

const defaultIterations = 1000000
const defaultSurvivors = 1
const defaultPackets = 100000
const defaultPacketSize = 1400
const defaultPacketsPerBuf = 32
const defaultChannelSize = 64
const defaultReportInterval = 0 * time.Second

// LoadFromFile reads and parses a YAML or JSON configuration file
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var fileConfig FileConfig
	if err := yaml.UnmarshalStrict(data, &fileConfig); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	config, err := convertFileConfig(fileConfig)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return config, nil
}

func convertFileConfig(fc FileConfig) (*Config, error) {
	mode, err := ParseMode(fc.Mode)
	if err != nil {
		return nil, err
	}

	config := Default()
	config.Mode = mode
	config.ListenAddr = fc.ListenAddr

	setInt(&config.Workers, fc.Workers)
	setInt(&config.Iterations, fc.Iterations)
	setInt(&config.Survivors, fc.Survivors)
	setInt(&config.Packets, fc.Packets)
	setInt(&config.PacketSize, fc.PacketSize)
	setInt(&config.PacketsPerBuf, fc.PacketsPerBuf)
	setInt(&config.ChannelSize, fc.ChannelSize)

	if fc.ScatterType != nil {
		config.ScatterType = ParseScatterType(*fc.ScatterType)
	}

	if fc.ReportInterval != nil {
		d, err := time.ParseDuration(*fc.ReportInterval)
		if err != nil {
			return nil, errors.Wrap(err, "invalid report interval")
		}
		config.ReportInterval = d
	}

	return config, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
