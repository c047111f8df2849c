package spectate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"emberfall/sim/internal/combat"
	"emberfall/sim/internal/config"
	"emberfall/sim/internal/logging"
	"emberfall/sim/internal/simrand"
)

// ServerConfig is read from the environment.
type ServerConfig struct {
	Addr         string        `env:"EMBERFALL_ADDR" envDefault:":8080"`
	TickInterval time.Duration `env:"EMBERFALL_TICK" envDefault:"500ms"`
	Seed         string        `env:"EMBERFALL_SEED" envDefault:"emberfall"`
}

// LoadServerConfig parses the server settings from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("spectate: parse env: %w", err)
	}
	return cfg, nil
}

// Run serves an endless exhibition battle over websocket: it builds rosters
// from the document's unit templates, steps one round per tick, broadcasts
// every snapshot, and starts a fresh battle when one completes.
func Run(ctx context.Context, cfg ServerConfig, doc config.Document, pub logging.Publisher) error {
	hub := NewHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	battleIndex := 0
	resolver, err := newExhibition(doc, cfg.Seed, battleIndex, pub)
	if err != nil {
		server.Close()
		return err
	}
	hub.Broadcast(resolver.Snapshot())

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		case <-ticker.C:
			if resolver.Completed() {
				battleIndex++
				resolver, err = newExhibition(doc, cfg.Seed, battleIndex, pub)
				if err != nil {
					log.Printf("spectate: rebuild battle: %v", err)
					continue
				}
			} else {
				resolver.Step()
			}
			hub.Broadcast(resolver.Snapshot())
		}
	}
}

// newExhibition splits the unit templates into two rosters and builds a
// resolver for one battle.
func newExhibition(doc config.Document, seed string, index int, pub logging.Publisher) (*combat.Resolver, error) {
	if len(doc.Units) == 0 {
		return nil, errors.New("spectate: no unit templates configured")
	}
	var rosterA, rosterB []combat.Unit
	for i, spec := range doc.Units {
		unit, err := spec.BuildUnit(fmt.Sprintf("exhibit-%d-%s", i, spec.Name))
		if err != nil {
			return nil, err
		}
		unit.X = i
		if i%2 == 0 {
			unit.Y = 0
			rosterA = append(rosterA, unit)
		} else {
			unit.Y = 7
			rosterB = append(rosterB, unit)
		}
	}
	cfg := doc.CombatConfig()
	cfg.BattleID = fmt.Sprintf("exhibition-%d", index)
	rng := simrand.New(seed, cfg.BattleID)
	return combat.NewResolver(cfg, rosterA, rosterB, rng, nil, pub)
}
