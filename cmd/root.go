package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crudload/internal/banner"
	"crudload/internal/cli"
	"crudload/internal/dummy"
	"crudload/internal/runner"
	"crudload/internal/storage"
)

const defaultURL = "http://localhost:4000"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "crudload",
	Short: "crudload - concurrent stress tests for a users CRUD API",
	Long: `
crudload fans out concurrent workers against a users REST API.

Each scenario exercises one endpoint:
  create  POST   /api/users
  read    GET    /api/users       (2xx with a JSON list of users)
  update  PUT    /api/users/:id   (first N existing users)
  delete  DELETE /api/users/:id   (last N existing users, asks first)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return setupLogging(viper.GetString("log-level"))
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.crudload.yaml)")
	rootCmd.PersistentFlags().StringP("url", "u", defaultURL, "Base URL of the users API")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("history-file", "", "Run history database (default $HOME/.crudload/history.db)")

	for _, op := range []runner.Operation{runner.OpCreate, runner.OpRead, runner.OpUpdate, runner.OpDelete} {
		rootCmd.AddCommand(scenarioCmd(op))
	}
	rootCmd.AddCommand(resetCmd, historyCmd, dummyCmd)
}

func initConfig() {
	// A missing .env is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not load .env")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".crudload")
		}
	}
	viper.SetEnvPrefix("crudload")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func historyPath() string {
	if viper.GetBool("no-history") {
		return ""
	}
	if p := viper.GetString("history-file"); p != "" {
		return p
	}
	p, err := storage.DefaultPath()
	if err != nil {
		logrus.WithError(err).Warn("no home directory, history disabled")
		return ""
	}
	return p
}

// --- Scenarios ---

func scenarioCmd(op runner.Operation) *cobra.Command {
	workers, requests := op.Defaults()

	c := &cobra.Command{
		Use:   string(op),
		Short: fmt.Sprintf("Stress %s %s", op.Method(), scenarioPath(op)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := runner.Config{
				Operation:         op,
				BaseURL:           viper.GetString("url"),
				Concurrency:       viper.GetInt("workers"),
				RequestsPerWorker: viper.GetInt("requests"),
				Timeout:           viper.GetDuration("timeout"),
				NameTemplate:      viper.GetString("name-template"),
				EmailTemplate:     viper.GetString("email-template"),
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			_, err := cli.Start(ctx, cli.Options{
				Config:       cfg,
				In:           os.Stdin,
				Out:          os.Stdout,
				TUI:          viper.GetBool("tui"),
				MetricsFile:  viper.GetString("metrics-file"),
				HistoryPath:  historyPath(),
				ReportPrefix: viper.GetString("out"),
				Log:          logrus.StandardLogger(),
			})
			return err
		},
	}

	c.Flags().IntP("workers", "w", workers, "Concurrent workers")
	c.Flags().IntP("requests", "n", requests, "Sequential requests per worker")
	c.Flags().Duration("timeout", 0, "Per-request timeout (0 = 10s default)")
	c.Flags().Bool("tui", false, "Show the live dashboard instead of per-request marks")
	c.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	c.Flags().String("out", "", "Write the summary (.json) and every attempt (.csv) under this path prefix")
	c.Flags().Bool("no-history", false, "Do not record this run in the history database")
	if op == runner.OpCreate || op == runner.OpUpdate {
		c.Flags().String("name-template", "", "Go template for generated names (default "+runner.DefaultNameTemplate+")")
		c.Flags().String("email-template", "", "Go template for generated emails (default "+runner.DefaultEmailTemplate+")")
	}
	return c
}

func scenarioPath(op runner.Operation) string {
	if op.NeedsPlan() {
		return "/api/users/:id"
	}
	return "/api/users"
}

// --- Maintenance ---

var resetCmd = &cobra.Command{
	Use:   "reset-sequence",
	Short: "Restart the users id sequence at 1",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ResetSequence(cmd.Context(), os.Stdout, viper.GetString("url"), viper.GetString("dsn"), logrus.StandardLogger())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, newest first, or show one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := historyPath()
		if path == "" {
			return errors.New("history is disabled")
		}
		if len(args) == 1 {
			return cli.ShowRun(os.Stdout, path, args[0])
		}
		return cli.PrintHistory(os.Stdout, path, viper.GetInt("limit"))
	},
}

// --- Dummy Subcommand ---
var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run an in-memory users API to stress locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, errs := dummy.Start(dummy.ServerConfig{
			Port:      viper.GetInt("port"),
			Seed:      viper.GetInt("seed"),
			ErrorRate: viper.GetFloat64("error-rate"),
			Latency:   viper.GetDuration("latency"),
		})
		return <-errs
	},
}

func init() {
	resetCmd.Flags().String("dsn", "", "PostgreSQL DSN used when the API call fails")
	historyCmd.Flags().Int("limit", 20, "Number of runs to show (0 = all)")

	dummyCmd.Flags().IntP("port", "p", 4000, "Port to run the sandbox API on")
	dummyCmd.Flags().Int("seed", 0, "Users to create at startup")
	dummyCmd.Flags().Float64("error-rate", 0, "Share of requests answered with 500 (0-1)")
	dummyCmd.Flags().Duration("latency", 0, "Upper bound of random latency per request")
}
