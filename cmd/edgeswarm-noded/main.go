// Command edgeswarm-noded runs one edge-swarm federated-learning node:
// the gossip runtime, status HTTP endpoint, and control-plane gRPC
// service, wired together from a config file and a persisted identity.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "edgeswarm-noded",
	Short: "Run and inspect an edgeswarm federated-learning node",
	Long: `edgeswarm-noded runs the Byzantine-robust federated-learning swarm
runtime: reputation-gated aggregation, regime-adaptive silence, TWT
radio scheduling, and stochastic collusion auditing, over a
user-supplied transport.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), statusCmd(), keygenCmd(), auditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
