package config

import "pohchain/blockstore"

// NodeConfig is the node-level configuration loaded from node.yml.
type NodeConfig struct {
	RPCAddr     string                 `yaml:"rpc_addr"`
	Store       blockstore.StoreConfig `yaml:"store"`
	PostgresDSN string                 `yaml:"postgres_dsn"`
}

// ConfigFile wraps the node config under a top-level key.
type ConfigFile struct {
	Config NodeConfig `yaml:"config"`
}
