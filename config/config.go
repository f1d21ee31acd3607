package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Defaults used when a tuning file or section is absent.
const (
	DefaultMempoolMaxTxs    = 10_000
	DefaultPipelineCapacity = 1_024
)

// LoadNodeConfig reads and parses the node.yml file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return &cfgFile.Config, nil
}

type PohConfig struct {
	TickRate uint64 `ini:"tick_rate"`
}

type MempoolConfig struct {
	MaxTxs int `ini:"max_txs"`
}

type PipelineConfig struct {
	Capacity int `ini:"capacity"`
}

// LoadPohConfig reads hash-clock tuning from an .ini file
func LoadPohConfig(path string) (*PohConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	pohSection := cfg.Section("poh")
	pohCfg := &PohConfig{}
	if err := pohSection.MapTo(pohCfg); err != nil {
		return nil, err
	}
	return pohCfg, nil
}

// LoadMempoolConfig reads pool tuning from an .ini file
func LoadMempoolConfig(path string) (*MempoolConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	mempoolSection := cfg.Section("mempool")
	mempoolCfg := &MempoolConfig{MaxTxs: DefaultMempoolMaxTxs}
	if err := mempoolSection.MapTo(mempoolCfg); err != nil {
		return nil, err
	}
	return mempoolCfg, nil
}

// LoadPipelineConfig reads submission pipeline tuning from an .ini file
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	pipelineSection := cfg.Section("pipeline")
	pipelineCfg := &PipelineConfig{Capacity: DefaultPipelineCapacity}
	if err := pipelineSection.MapTo(pipelineCfg); err != nil {
		return nil, err
	}
	return pipelineCfg, nil
}
