package blockstore

import (
	"fmt"

	"pohchain/db"
)

// StoreType represents the type of persistence backend
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"
	// BoltStoreType uses the bbolt implementation
	BoltStoreType StoreType = "bolt"
)

// StoreConfig holds configuration for creating block store instances
type StoreConfig struct {
	// Type specifies which backend to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory path
	Directory string `json:"directory" yaml:"directory"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store type cannot be empty")
	}
	if sc.Directory == "" {
		return fmt.Errorf("directory cannot be empty")
	}

	switch sc.Type {
	case LevelDBStoreType, BoltStoreType:
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// CreateProvider creates a database provider based on the configuration
func CreateProvider(config *StoreConfig) (db.DatabaseProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)
	case BoltStoreType:
		return db.NewBoltProvider(config.Directory)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// CreateStore creates a block store over the configured backend.
func CreateStore(config *StoreConfig) (*BlockStore, error) {
	provider, err := CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return NewBlockStore(provider)
}

// NewLevelDBConfig creates a LevelDB store configuration
func NewLevelDBConfig(directory string) *StoreConfig {
	return &StoreConfig{Type: LevelDBStoreType, Directory: directory}
}

// NewBoltConfig creates a bbolt store configuration
func NewBoltConfig(directory string) *StoreConfig {
	return &StoreConfig{Type: BoltStoreType, Directory: directory}
}
