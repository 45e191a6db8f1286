package main

import (
	"database/sql"
	"log"
	"os"

	"questboard/internal/datastore"
	"questboard/internal/interfaces"
	"questboard/internal/pkg/caching"
	"questboard/internal/pkg/locker"
	"questboard/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
			commandReconcileOnce(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			job, err := newJob()
			if err != nil {
				return err
			}

			cronRunner := cron.New()
			if err := job.Start(cronRunner); err != nil {
				return err
			}

			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func commandReconcileOnce() *cli.Command {
	return &cli.Command{
		Name:  "reconcile-xp",
		Usage: "rewrite every user's total XP from the submission ledger once",
		Action: func(c *cli.Context) error {
			job, err := newJob()
			if err != nil {
				return err
			}

			job.runScheduledTask()
			return nil
		},
	}
}

func newJob() (*XPReconcileJob, error) {
	if _, err := env.EnvsRequired("DB_DSN"); err != nil {
		return nil, err
	}

	dbPostgres, err := getDb()
	if err != nil {
		return nil, err
	}

	dbRedis, err := getRedis()
	if err != nil {
		return nil, err
	}

	rs := redsync.New(goredis.NewPool(dbRedis))

	injector := do.New()
	do.ProvideValue[interfaces.Store](injector, datastore.NewStore(dbPostgres))
	do.ProvideValue[interfaces.Locker](injector, locker.NewRedsync(rs))
	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheRedis(dbRedis, false)
	})
	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		return caching.NewCacheRedis(dbRedis, false)
	})
	services.ProvideServices(injector)

	return NewXPReconcileJob(injector, rs)
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}

func getRedis() (redis.UniversalClient, error) {
	clusterRedisMutex := os.Getenv("CLUSTER_REDIS_MUTEX")
	if clusterRedisMutex != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisMutex)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	url := os.Getenv("REDIS_MUTEX")
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}

	return db.InitRedis(&db.RedisConfig{
		URL: url,
	})
}
