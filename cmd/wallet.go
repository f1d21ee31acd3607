package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"pohchain/interfaces"
	"pohchain/logx"
	"pohchain/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Generate a new wallet keypair",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := wallet.NewWallet()
		if err != nil {
			log.Fatalf("Failed to generate wallet: %v", err)
		}

		persistWallet(w)

		out, err := json.MarshalIndent(map[string]string{
			"id":      w.ID,
			"address": w.Address,
			"sender":  w.SenderAddress(),
		}, "", "  ")
		if err != nil {
			log.Fatalf("Failed to render wallet: %v", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.Flags().StringVarP(&nodeConfigPath, "config", "c", defaultNodeConfig, "Path to the node YAML config")
}

// persistWallet saves the new wallet record through the configured store.
func persistWallet(w *wallet.Wallet) {
	cfg := loadNodeConfig()
	persister := openPersister(cfg)
	defer persister.Close()

	store, okStore := persister.(interfaces.WalletStore)
	if !okStore {
		logx.Warn("WALLET", "Configured store cannot persist wallets")
		return
	}
	if err := store.SaveWallet(w); err != nil {
		logx.Error("WALLET", "Failed to persist wallet: ", err)
		return
	}
	logx.Info("WALLET", "Wallet persisted | address=", w.Address)
}
