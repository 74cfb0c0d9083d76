// Command datlas runs the schema knowledge-graph service: it introspects a
// relational database's catalog, builds a typed graph of its schema in
// Neo4j, and serves fuzzy schema search and context assembly over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/DatLas/internal/archive"
	"github.com/koustreak/DatLas/internal/catalog"
	"github.com/koustreak/DatLas/internal/config"
	"github.com/koustreak/DatLas/internal/database"
	"github.com/koustreak/DatLas/internal/database/mysql"
	"github.com/koustreak/DatLas/internal/database/oracle"
	"github.com/koustreak/DatLas/internal/database/postgres"
	"github.com/koustreak/DatLas/internal/graph/neo4j"
	"github.com/koustreak/DatLas/internal/kg"
	"github.com/koustreak/DatLas/internal/logger"
	"github.com/koustreak/DatLas/internal/server"
)

func main() {
	configPath := flag.String("config", "datlas.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "datlas:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := newReader(cfg.Source.Dialect, db)

	store, err := neo4j.New(ctx, neo4j.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	}, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	var snapshots kg.SnapshotArchive
	if cfg.ArchiveEnabled() {
		archiveStore, err := archive.New(ctx, archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
			Region:    cfg.Archive.Region,
		}, log)
		if err != nil {
			return err
		}
		snapshots = archiveStore
	}

	engine := kg.NewEngine(reader, store, snapshots, kg.Config{
		DefaultDatabase:    cfg.Introspection.DefaultDatabase,
		DatabaseType:       cfg.Source.Dialect,
		MultiDatabase:      cfg.Introspection.MultiDatabase,
		InferenceEnabled:   cfg.Introspection.InferenceEnabled,
		InferenceThreshold: cfg.Introspection.InferenceThreshold,
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.New(engine, store, log).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.With().Str("addr", srv.Addr).Logger().Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openSource(ctx context.Context, cfg *config.Config) (database.DB, error) {
	dbCfg := database.DefaultConfig(database.Dialect(cfg.Source.Dialect), cfg.Source.DSN)
	switch cfg.Source.Dialect {
	case "postgres":
		return postgres.New(ctx, dbCfg)
	case "mysql":
		return mysql.New(ctx, dbCfg)
	default:
		return oracle.New(ctx, dbCfg)
	}
}

func newReader(dialect string, db database.DB) catalog.Reader {
	switch dialect {
	case "postgres":
		return catalog.NewPostgres(db)
	case "mysql":
		return catalog.NewMySQL(db)
	default:
		return catalog.NewOracle(db)
	}
}
