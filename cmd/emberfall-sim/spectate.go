package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"emberfall/sim/internal/logging"
	"emberfall/sim/internal/logging/sinks"
	"emberfall/sim/internal/spectate"
)

func newSpectateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "spectate",
		Short: "Serve an exhibition battle over websocket for rendering clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(configPath)
			if err != nil {
				return err
			}
			serverCfg, err := spectate.LoadServerConfig()
			if err != nil {
				return err
			}

			router := logging.NewRouter(nil, logging.Config{MinimumSeverity: logging.SeverityInfo}, []logging.NamedSink{
				{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logging.SeverityInfo)},
			})
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				router.Close(ctx)
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("serving exhibition battles on %s (ws endpoint /ws)\n", serverCfg.Addr)
			return spectate.Run(ctx, serverCfg, doc, router)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "trial configuration YAML (built-in defaults when empty)")
	return cmd
}
