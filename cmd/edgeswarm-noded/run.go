package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/edgeswarm/core/api"
	"github.com/edgeswarm/core/config"
	"github.com/edgeswarm/core/store"
	"github.com/edgeswarm/core/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runCmd() *cobra.Command {
	var (
		dataDir     string
		configPath  string
		preset      string
		modelDim    int
		statusAddr  string
		controlAddr string
		udpAddr     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a node: gossip runtime, status endpoint, and control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams(configPath, preset)
			if err != nil {
				return err
			}

			identity, err := store.LoadOrCreateIdentityPair(
				filepath.Join(dataDir, "identity.seed"),
				filepath.Join(dataDir, "x25519.seed"),
			)
			if err != nil {
				return fmt.Errorf("load identity: %w", err)
			}

			n := buildNode(params, identity, modelDim, time.Now())

			udp, err := transport.ListenUDP(udpAddr)
			if err != nil {
				return fmt.Errorf("start udp transport: %w", err)
			}
			defer udp.Close()

			ctrlSrv, ctrlListenAddr, err := transport.ServeControlPlane(controlAddr, &transport.NodeControlAdapter{Node: n})
			if err != nil {
				return fmt.Errorf("start control plane: %w", err)
			}
			var closer transport.ServerCloser
			closer.Add(ctrlSrv)
			defer closer.Close()

			httpSrv := &http.Server{Addr: statusAddr, Handler: api.NewRouter(n)}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				err := httpSrv.ListenAndServe()
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			})
			g.Go(func() error {
				<-gctx.Done()
				return httpSrv.Close()
			})

			status := n.Status()
			fmt.Printf("edgeswarm node %s listening: udp=%s status=%s control=%s\n",
				status.PeerID, udp.LocalAddr(), statusAddr, ctrlListenAddr)

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "directory for persisted identity/state")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML parameters file (overrides --preset)")
	cmd.Flags().StringVar(&preset, "preset", "testnet", "parameter preset: testnet | mainnet | local")
	cmd.Flags().IntVar(&modelDim, "model-dim", 16, "model vector dimension")
	cmd.Flags().StringVar(&statusAddr, "status-addr", ":8080", "status HTTP listen address")
	cmd.Flags().StringVar(&controlAddr, "control-addr", ":8081", "control-plane gRPC listen address")
	cmd.Flags().StringVar(&udpAddr, "udp-addr", ":7946", "gossip UDP listen address")

	return cmd
}

func loadParams(configPath, preset string) (config.Parameters, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	switch preset {
	case "mainnet":
		return config.MainnetLike(), nil
	case "local":
		return config.LocalSingleNode(), nil
	default:
		return config.Testnet(), nil
	}
}
