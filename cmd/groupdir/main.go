package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/groupdir-io/groupdir/internal/api"
	"github.com/groupdir-io/groupdir/internal/config"
	"github.com/groupdir-io/groupdir/internal/database"
	"github.com/groupdir-io/groupdir/internal/groups"
	"github.com/groupdir-io/groupdir/internal/index"
	"github.com/groupdir-io/groupdir/internal/query"
	"github.com/groupdir-io/groupdir/internal/resolver"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configFileFlag string

var rootCmd = &cobra.Command{
	Use:     "groupdir",
	Short:   "groupdir - searchable directory of access-control groups",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the group directory HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configFileFlag, "config", os.Getenv("GROUPDIR_CONFIG"), "Path to the yaml config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("groupdir %s\n", rootCmd.Version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFileFlag)
	if err != nil {
		return err
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabaseOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing db: %v", err)
		}
	}()
	driver := cfg.Database.Driver

	schema, err := index.SchemaForVersion(cfg.Search.IndexVersion)
	if err != nil {
		return err
	}
	log.Printf("group index schema version %d", schema.Version())

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("error closing redis client: %v", err)
			}
		}()
	}

	store := groups.NewStore(db, driver)
	cache := groups.NewCache(store, groups.CacheOptions{
		TTL:   cfg.Search.CacheTTL,
		Redis: redisClient,
	})
	defer cache.Close()

	var accounts query.AccountResolver
	if cfg.LDAP.Enabled {
		accounts = resolver.NewLDAPResolver(cfg.LDAP.LDAPConfig)
		log.Printf("resolving accounts via ldap://%s:%d", cfg.LDAP.Host, cfg.LDAP.Port)
	} else {
		accounts = resolver.NewSQLResolver(db, driver)
	}

	builder := query.NewBuilder(query.Args{
		Schema:   schema,
		Accounts: accounts,
		Groups:   cache,
		Backend:  groups.NewSQLBackend(db, driver),
	})

	ix := groups.NewIndex(db, driver, groups.IndexOptions{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	})

	router := api.NewRouter(api.NewSearchHandler(builder, ix, cfg.Server.WriteTimeout))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
