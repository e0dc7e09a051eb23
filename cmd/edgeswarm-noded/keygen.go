package main

import (
	"fmt"
	"path/filepath"

	"github.com/edgeswarm/core/store"
	"github.com/spf13/cobra"
)

func keygenCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate (or load) a node identity and print its peer id",
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := store.LoadOrCreateIdentityPair(
				filepath.Join(dataDir, "identity.seed"),
				filepath.Join(dataDir, "x25519.seed"),
			)
			if err != nil {
				return fmt.Errorf("load or create identity: %w", err)
			}
			peerID := pair.Identity.PeerID()
			fmt.Printf("%x\n", peerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "directory for persisted identity/state")
	return cmd
}
