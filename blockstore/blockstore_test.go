package blockstore

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"pohchain/block"
	"pohchain/poh"
	"pohchain/types"
	"pohchain/wallet"
)

func storeConfigs(t *testing.T) map[string]*StoreConfig {
	t.Helper()
	return map[string]*StoreConfig{
		"leveldb": NewLevelDBConfig(t.TempDir()),
		"bolt":    NewBoltConfig(t.TempDir()),
	}
}

func sampleBlock(prev string, count uint64) *block.Block {
	tx := &types.Transaction{
		ID:        "tx-1",
		Sender:    "sender",
		Recipient: "recipient",
		Amount:    uint256.NewInt(5),
		Timestamp: 1_700_000_000,
		Signature: "sig",
	}
	return block.Assemble(prev, []*types.Transaction{tx}, poh.Entry{Hash: "stamp", Count: count}, time.Now())
}

func TestStoreConfigValidate(t *testing.T) {
	require.Error(t, (&StoreConfig{}).Validate())
	require.Error(t, (&StoreConfig{Type: "redis", Directory: "x"}).Validate())
	require.Error(t, (&StoreConfig{Type: LevelDBStoreType}).Validate())
	require.NoError(t, NewLevelDBConfig("x").Validate())
	require.NoError(t, NewBoltConfig("x").Validate())
}

func TestSaveAndGetBlock(t *testing.T) {
	for name, cfg := range storeConfigs(t) {
		t.Run(name, func(t *testing.T) {
			store, err := CreateStore(cfg)
			require.NoError(t, err)
			defer store.Close()

			blk := sampleBlock(poh.ZeroHash, 1)
			require.NoError(t, store.SaveBlock(blk))

			got, err := store.GetBlock(blk.Hash)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, blk.Hash, got.Hash)
			require.Equal(t, blk.PohCount, got.PohCount)
			require.Len(t, got.Transactions, 1)
			require.Equal(t, "tx-1", got.Transactions[0].ID)
			require.Equal(t, "5", got.Transactions[0].AmountString())
		})
	}
}

func TestGetBlockMissingReturnsNil(t *testing.T) {
	for name, cfg := range storeConfigs(t) {
		t.Run(name, func(t *testing.T) {
			store, err := CreateStore(cfg)
			require.NoError(t, err)
			defer store.Close()

			got, err := store.GetBlock("missing")
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestLatestBlockTracksLastSave(t *testing.T) {
	for name, cfg := range storeConfigs(t) {
		t.Run(name, func(t *testing.T) {
			store, err := CreateStore(cfg)
			require.NoError(t, err)
			defer store.Close()

			latest, err := store.LatestBlock()
			require.NoError(t, err)
			require.Nil(t, latest)

			first := sampleBlock(poh.ZeroHash, 1)
			second := sampleBlock(first.Hash, 2)
			require.NoError(t, store.SaveBlock(first))
			require.NoError(t, store.SaveBlock(second))

			latest, err = store.LatestBlock()
			require.NoError(t, err)
			require.NotNil(t, latest)
			require.Equal(t, second.Hash, latest.Hash)
		})
	}
}

func TestWalletRoundTrip(t *testing.T) {
	for name, cfg := range storeConfigs(t) {
		t.Run(name, func(t *testing.T) {
			store, err := CreateStore(cfg)
			require.NoError(t, err)
			defer store.Close()

			w, err := wallet.NewWallet()
			require.NoError(t, err)
			require.NoError(t, store.SaveWallet(w))

			got, err := store.GetWallet(w.Address)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, w.ID, got.ID)
			require.Equal(t, w.PublicKey, got.PublicKey)

			missing, err := store.GetWallet("missing")
			require.NoError(t, err)
			require.Nil(t, missing)
		})
	}
}

func TestCreateProviderRejectsNilConfig(t *testing.T) {
	_, err := CreateProvider(nil)
	require.Error(t, err)
}
