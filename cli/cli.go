// Package cli implements the airflow command line.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"airflow/cache"
	"airflow/catalog"
	"airflow/config"
	"airflow/server"
	"airflow/service"
	"airflow/store"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build metadata injected by the main package.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app carries the persistent flags and the config loaded from them.
type app struct {
	configPath string
	verbose    bool
	jsonLog    bool
	cfg        *config.Config
}

// Execute runs the airflow CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "airflow",
		Short:        "Airflow simulates ventilation fan layouts for hawker centres",
		Long:         `Airflow estimates the air velocity field of a fan layout over a floor plan and checks it against the air change rate required for food establishments.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("airflow %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "conf/config.ini", "path to the ini configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonLog, "json", false, "log as JSON")

	root.AddCommand(a.newServeCmd())
	root.AddCommand(a.newSimulateCmd())
	root.AddCommand(a.newFansCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) setup() error {
	log.SetOutput(os.Stderr)
	if a.jsonLog {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if a.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	a.cfg = cfg
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	return catalog.LoadFile(a.cfg.Catalog.Path)
}

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			c, err := cache.New(ctx, a.cfg.Cache)
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := store.OpenSQLite(a.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer st.Close()

			svc, err := service.New(a.cfg, cat, c, st)
			if err != nil {
				return err
			}
			upgrader := websocket.Upgrader{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				// 前端页面与服务不同源
				CheckOrigin: func(r *http.Request) bool { return true },
			}
			return server.NewServer(a.cfg.Server, svc, upgrader).Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func (a *app) newFansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fans",
		Short: "List the fan catalog and application profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render("Fan models"))
			fmt.Fprintln(out, fanTable(cat.Fans()))
			fmt.Fprintln(out, StyleTitle.Render("Applications"))
			fmt.Fprintln(out, applicationTable(cat.Applications()))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "airflow %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
