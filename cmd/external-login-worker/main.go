package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/activitymap"
	"github.com/goliatone/go-auth-workflows/repository"
	"github.com/goliatone/go-auth-workflows/workflows/temporal"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.temporal.io/sdk/worker"
)

// persistenceConfig implements persistence.Config.
type persistenceConfig struct {
	Debug          bool          `env:"DATABASE_DEBUG" envDefault:"false"`
	DSN            string        `env:"DATABASE_DSN" envDefault:"file:auth.db?cache=shared"`
	Database       string        `env:"DATABASE_NAME" envDefault:"auth"`
	PingTimeout    time.Duration `env:"DATABASE_PING_TIMEOUT" envDefault:"5s"`
	OtelIdentifier string        `env:"DATABASE_OTEL_IDENTIFIER"`
	Migrate        bool          `env:"DATABASE_MIGRATE" envDefault:"true"`
}

var _ persistence.Config = persistenceConfig{}

func (p persistenceConfig) GetDebug() bool {
	return p.Debug
}

func (p persistenceConfig) GetDriver() string {
	return sqliteshim.ShimName
}

func (p persistenceConfig) GetServer() string {
	return p.DSN
}

func (p persistenceConfig) GetDatabase() string {
	return p.Database
}

func (p persistenceConfig) GetPingTimeout() time.Duration {
	return p.PingTimeout
}

func (p persistenceConfig) GetOtelIdentifier() string {
	return p.OtelIdentifier
}

func main() {
	logger := auth.DefaultLogger("WORKER")

	var pcfg persistenceConfig
	if err := env.Parse(&pcfg); err != nil {
		log.Fatal(err)
	}

	cfg, err := temporal.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	sqldb, err := sql.Open(pcfg.GetDriver(), pcfg.GetServer())
	if err != nil {
		log.Fatal(err)
	}
	defer sqldb.Close()

	repository.RegisterModels()
	client, err := persistence.New(pcfg, sqldb, sqlitedialect.New())
	if err != nil {
		log.Fatal(err)
	}
	client.SetLogger(func(format string, a ...any) {
		logger.Debug(fmt.Sprintf(format, a...))
	})

	if pcfg.Migrate {
		if err := repository.RegisterMigrations(client); err != nil {
			log.Fatal(err)
		}
		if err := client.Migrate(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

	repos, err := repository.NewManagerFromClient(client)
	if err != nil {
		log.Fatal(err)
	}
	repos.MustValidate()

	c, err := temporal.Dial(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	acts := &temporal.Activities{
		Roles: repos.Roles(),
		Sink: activitymap.Sink(func(ctx context.Context, record activitymap.Normalized) error {
			fmt.Println(print.MaybePrettyJSON(record))
			return nil
		}),
	}

	w := temporal.NewWorker(c, *cfg, acts)

	logger.Info("worker started", "task_queue", cfg.GetTaskQueue(), "namespace", cfg.GetNamespace())
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
