package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeswarm/core/transport"
	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	var controlAddr string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Trigger an out-of-band collusion audit on a running node",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := transport.DialControlPlane(ctx, controlAddr)
			if err != nil {
				return fmt.Errorf("dial control plane %s: %w", controlAddr, err)
			}
			defer conn.Close()

			resp, err := transport.NewControlClient(conn).TriggerAudit(ctx)
			if err != nil {
				return fmt.Errorf("trigger audit rpc: %w", err)
			}

			fmt.Printf("audit triggered: %v\n", resp.Triggered)
			return nil
		},
	}

	cmd.Flags().StringVar(&controlAddr, "control-addr", "127.0.0.1:8081", "control-plane gRPC address to dial")
	return cmd
}
