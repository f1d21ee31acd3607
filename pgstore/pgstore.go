package pgstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	_ "github.com/lib/pq"

	"pohchain/block"
	"pohchain/interfaces"
	"pohchain/types"
	"pohchain/wallet"
)

// PGStore is the relational persistence collaborator. Blocks are keyed by
// hash; transactions reference their containing block by foreign key.
type PGStore struct {
	db *sql.DB
}

var (
	_ interfaces.BlockPersister = (*PGStore)(nil)
	_ interfaces.WalletStore    = (*PGStore)(nil)
)

// Open connects to Postgres and ensures the schema exists.
func Open(dsn string) (*PGStore, error) {
	handle, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PGStore{db: handle}
	if err := store.initSchema(); err != nil {
		handle.Close()
		return nil, err
	}
	return store, nil
}

func (s *PGStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			id VARCHAR(36) PRIMARY KEY,
			address VARCHAR(64) UNIQUE NOT NULL,
			public_key BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			hash VARCHAR(64) PRIMARY KEY,
			previous_hash VARCHAR(64) NOT NULL,
			timestamp BIGINT NOT NULL,
			poh_hash VARCHAR(64) NOT NULL,
			poh_count BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(36) PRIMARY KEY,
			block_hash VARCHAR(64) REFERENCES blocks(hash),
			tx_index INT NOT NULL,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			amount NUMERIC(78,0) NOT NULL,
			timestamp BIGINT NOT NULL,
			signature TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// SaveBlock writes the block header and its transactions in one database
// transaction. A re-save of an already persisted hash is ignored.
func (s *PGStore) SaveBlock(blk *block.Block) error {
	if blk == nil {
		return fmt.Errorf("block cannot be nil")
	}

	dbtx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer dbtx.Rollback()

	_, err = dbtx.Exec(
		`INSERT INTO blocks (hash, previous_hash, timestamp, poh_hash, poh_count)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (hash) DO NOTHING`,
		blk.Hash, blk.PrevHash, blk.Timestamp, blk.PohHash, int64(blk.PohCount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert block: %w", err)
	}

	for i, tx := range blk.Transactions {
		_, err = dbtx.Exec(
			`INSERT INTO transactions (id, block_hash, tx_index, sender, recipient, amount, timestamp, signature)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			tx.ID, blk.Hash, i, tx.Sender, tx.Recipient, tx.AmountString(), int64(tx.Timestamp), tx.Signature,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
		}
	}

	return dbtx.Commit()
}

// LatestBlock returns the block with the highest clock count, transactions
// included; (nil, nil) when the table is empty.
func (s *PGStore) LatestBlock() (*block.Block, error) {
	row := s.db.QueryRow(
		`SELECT hash, previous_hash, timestamp, poh_hash, poh_count
		 FROM blocks ORDER BY poh_count DESC LIMIT 1`)

	var blk block.Block
	var pohCount int64
	err := row.Scan(&blk.Hash, &blk.PrevHash, &blk.Timestamp, &blk.PohHash, &pohCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest block: %w", err)
	}
	blk.PohCount = uint64(pohCount)

	txs, err := s.blockTransactions(blk.Hash)
	if err != nil {
		return nil, err
	}
	blk.Transactions = txs
	return &blk, nil
}

// blockTransactions reads a block's transactions back in sealed order. The
// stored index, not the wallet-set timestamp, defines that order: the block
// hash covers the transactions in sequence, so a permuted restore would no
// longer recompute.
func (s *PGStore) blockTransactions(blockHash string) ([]*types.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT id, sender, recipient, amount, timestamp, signature
		 FROM transactions WHERE block_hash = $1 ORDER BY tx_index ASC`, blockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*types.Transaction
	for rows.Next() {
		var tx types.Transaction
		var amount string
		var ts int64
		if err := rows.Scan(&tx.ID, &tx.Sender, &tx.Recipient, &amount, &ts, &tx.Signature); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		parsed, err := uint256.FromDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		tx.Amount = parsed
		tx.Timestamp = uint64(ts)
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

// SaveWallet persists a wallet record.
func (s *PGStore) SaveWallet(w *wallet.Wallet) error {
	if w == nil {
		return fmt.Errorf("wallet cannot be nil")
	}
	_, err := s.db.Exec(
		`INSERT INTO wallets (id, address, public_key, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		w.ID, w.Address, w.PublicKey, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

// GetWallet retrieves a wallet record by address; (nil, nil) when absent.
func (s *PGStore) GetWallet(address string) (*wallet.Wallet, error) {
	row := s.db.QueryRow(
		`SELECT id, address, public_key, created_at FROM wallets WHERE address = $1`, address)

	var w wallet.Wallet
	var createdAt time.Time
	err := row.Scan(&w.ID, &w.Address, &w.PublicKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet: %w", err)
	}
	w.CreatedAt = createdAt
	return &w, nil
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}
