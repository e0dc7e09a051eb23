package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeswarm/core/transport"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var controlAddr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running node's control plane for its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := transport.DialControlPlane(ctx, controlAddr)
			if err != nil {
				return fmt.Errorf("dial control plane %s: %w", controlAddr, err)
			}
			defer conn.Close()

			resp, err := transport.NewControlClient(conn).Status(ctx)
			if err != nil {
				return fmt.Errorf("status rpc: %w", err)
			}

			s := resp.Status
			fmt.Printf("peer:       %s\n", s.PeerID)
			fmt.Printf("peers:      %d\n", s.KnownPeers)
			fmt.Printf("model dim:  %d\n", s.ModelDimension)
			fmt.Printf("round:      %d\n", s.Round)
			fmt.Printf("energy:     %d/%d (%.3f)\n", s.EnergyCurrent, s.EnergyCapacity, s.EnergyRatio)
			fmt.Printf("regime:     %s\n", s.RegimeState)
			fmt.Printf("silence:    %s\n", s.SilenceState)
			return nil
		},
	}

	cmd.Flags().StringVar(&controlAddr, "control-addr", "127.0.0.1:8081", "control-plane gRPC address to dial")
	return cmd
}
