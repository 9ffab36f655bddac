// Package domaind parses domain runtime flags and drives the cycle loop.
package domaind

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/latticeworks/dislocnet/internal/exchange"
	"github.com/latticeworks/dislocnet/internal/geometry"
	entrypoint "github.com/latticeworks/dislocnet/internal/platform/cmd"
	"github.com/latticeworks/dislocnet/internal/sim"
	"github.com/latticeworks/dislocnet/internal/storage"
	"github.com/latticeworks/dislocnet/internal/storage/sqlite"
	"github.com/latticeworks/dislocnet/internal/telemetry"
)

// Config holds domain runtime configuration.
type Config struct {
	Domains         int     `env:"DISLOCNET_DOMAINS" envDefault:"2"`
	Cycles          int     `env:"DISLOCNET_CYCLES" envDefault:"100"`
	BoxSide         float64 `env:"DISLOCNET_BOX_SIDE" envDefault:"1000"`
	Periodic        bool    `env:"DISLOCNET_PERIODIC" envDefault:"true"`
	OplogBlock      int     `env:"DISLOCNET_OPLOG_BLOCK" envDefault:"1024"`
	DBPath          string  `env:"DISLOCNET_DB_PATH"`
	CheckpointEvery int     `env:"DISLOCNET_CHECKPOINT_EVERY" envDefault:"10"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Domains, "domains", cfg.Domains, "number of cooperating domains")
	fs.IntVar(&cfg.Cycles, "cycles", cfg.Cycles, "number of cycles to run")
	fs.Float64Var(&cfg.BoxSide, "box-side", cfg.BoxSide, "simulation cell side length, centered at the origin")
	fs.BoolVar(&cfg.Periodic, "periodic", cfg.Periodic, "apply periodic boundaries on all axes")
	fs.IntVar(&cfg.OplogBlock, "oplog-block", cfg.OplogBlock, "operation log growth quantum, in records")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the checkpoint database (empty disables persistence)")
	fs.IntVar(&cfg.CheckpointEvery, "checkpoint-every", cfg.CheckpointEvery, "cycles between checkpoints (0 disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Domains < 1 {
		return fmt.Errorf("at least one domain is required")
	}
	if cfg.Cycles < 0 {
		return fmt.Errorf("cycle count must be >= 0")
	}
	if cfg.BoxSide <= 0 {
		return fmt.Errorf("box side must be positive")
	}
	return nil
}

// Run starts the consistency runtime for every domain in this process.
func Run(ctx context.Context, cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDomain, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	var store *sqlite.Store
	if cfg.DBPath != "" {
		var err error
		store, err = openStore(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()
	}

	half := cfg.BoxSide / 2
	box, err := geometry.NewBox(
		geometry.Vec3{X: -half, Y: -half, Z: -half},
		geometry.Vec3{X: half, Y: half, Z: half},
		cfg.Periodic, cfg.Periodic, cfg.Periodic,
	)
	if err != nil {
		return fmt.Errorf("build simulation cell: %w", err)
	}

	domains := make([]*sim.Domain, cfg.Domains)
	emitters := make([]*telemetry.Emitter, cfg.Domains)
	for rank := range domains {
		domains[rank] = sim.New(sim.Options{
			Rank:      rank,
			Box:       box,
			BlockSize: cfg.OplogBlock,
		})
		if store != nil {
			emitters[rank] = telemetry.NewEmitter(store, rank)
		}
	}

	start := 0
	if store != nil {
		resumed, err := restoreLatest(ctx, store, domains)
		if err != nil {
			return err
		}
		if resumed >= 0 {
			start = resumed + 1
			log.Printf("resumed %d domains from checkpoint cycle %d", len(domains), resumed)
		}
	}
	for _, d := range domains {
		d.SetCycle(start)
	}

	exchanger := &exchange.InMemory{}
	tracer := otel.Tracer("domaind")

	for cycle := start; cycle < cfg.Cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycleCtx, span := tracer.Start(ctx, "cycle")
		span.SetAttributes(attribute.Int("cycle", cycle))

		began := time.Now()
		pending := make([]int, len(domains))
		for rank, d := range domains {
			pending[rank] = d.Log.Len()
		}
		if err := exchanger.Exchange(cycleCtx, domains); err != nil {
			span.End()
			return fmt.Errorf("exchange cycle %d: %w", cycle, err)
		}
		elapsed := time.Since(began)

		for rank, d := range domains {
			emit(cycleCtx, emitters[rank], cycle, telemetry.EventLiveNodes, int64(d.Arena.Live()))
			emit(cycleCtx, emitters[rank], cycle, telemetry.EventOplogRecords, int64(pending[rank]))
			emit(cycleCtx, emitters[rank], cycle, telemetry.EventCycleMicros, elapsed.Microseconds())
		}

		if store != nil && cfg.CheckpointEvery > 0 && (cycle+1)%cfg.CheckpointEvery == 0 {
			for _, d := range domains {
				if err := store.SaveCheckpoint(cycleCtx, storage.Checkpoint{
					Domain: d.Rank,
					Cycle:  cycle,
					Nodes:  d.Snapshot(),
				}); err != nil {
					span.End()
					return fmt.Errorf("checkpoint domain %d cycle %d: %w", d.Rank, cycle, err)
				}
			}
		}

		for _, d := range domains {
			d.AdvanceCycle()
		}
		span.End()
	}
	return nil
}

func emit(ctx context.Context, emitter *telemetry.Emitter, cycle int, name string, value int64) {
	if err := emitter.Emit(ctx, cycle, name, value); err != nil {
		log.Printf("emit %s: %v", name, err)
	}
}

// restoreLatest loads the newest cycle checkpointed for every domain, or
// returns -1 when the store holds no checkpoints at all. A partial set
// (some domains checkpointed, some not) is an error: resuming part of the
// job while starting the rest fresh would mix cycle counters of different
// parities and desynchronize ownership arbitration.
func restoreLatest(ctx context.Context, store *sqlite.Store, domains []*sim.Domain) (int, error) {
	latest := -1
	var missing []int
	for _, d := range domains {
		cycle, err := store.LatestCycle(ctx, d.Rank)
		if errors.Is(err, storage.ErrNotFound) {
			missing = append(missing, d.Rank)
			continue
		}
		if err != nil {
			return -1, fmt.Errorf("latest cycle for domain %d: %w", d.Rank, err)
		}
		if latest == -1 || cycle < latest {
			latest = cycle
		}
	}
	if latest < 0 {
		return -1, nil
	}
	if len(missing) > 0 {
		return -1, fmt.Errorf("checkpoint store covers only part of the job: domains %v have no checkpoints", missing)
	}
	for _, d := range domains {
		cp, err := store.LoadCheckpoint(ctx, d.Rank, latest)
		if errors.Is(err, storage.ErrNotFound) {
			return -1, fmt.Errorf("checkpoint set for cycle %d is missing domain %d", latest, d.Rank)
		}
		if err != nil {
			return -1, fmt.Errorf("load checkpoint for domain %d: %w", d.Rank, err)
		}
		if err := d.Restore(cp.Nodes); err != nil {
			return -1, fmt.Errorf("restore domain %d: %w", d.Rank, err)
		}
	}
	return latest, nil
}

func openStore(ctx context.Context, path string) (*sqlite.Store, error) {
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}
