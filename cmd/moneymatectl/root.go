package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"moneymate/internal/backend"
	"moneymate/internal/cli"
	"moneymate/internal/config"
	"moneymate/internal/core"
	"moneymate/internal/log"
	"moneymate/internal/services"
)

// app holds what every subcommand needs once the profile is resolved.
type app struct {
	out     io.Writer
	errOut  io.Writer
	profile config.Profile
	svc     *services.LedgerService
	render  *cli.Renderer

	flagConfig   string
	flagBackend  string
	flagDataDir  string
	flagSQLite   string
	flagUser     string
	flagCurrency string
	flagToday    string
	flagVerbose  bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "moneymatectl",
		Short:         "Personal budget tracker",
		Long:          "Record expenses, goals, recurring costs and owings, and review your monthly budget health.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["no-store"] == "true" {
				return a.loadProfile()
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "Profile file (default "+config.ProfilePath()+")")
	pf.StringVar(&a.flagBackend, "backend", "", "Ledger store: json, sqlite or memory")
	pf.StringVar(&a.flagDataDir, "data-dir", "", "Directory of the json store")
	pf.StringVar(&a.flagSQLite, "sqlite-path", "", "Database file of the sqlite store")
	pf.StringVarP(&a.flagUser, "user", "u", "", "User whose ledger is used")
	pf.StringVar(&a.flagCurrency, "currency", "", "Currency symbol used for display")
	pf.StringVar(&a.flagToday, "today", "", "Override today's date (YYYY-MM-DD)")
	pf.BoolVarP(&a.flagVerbose, "verbose", "v", false, "Log store activity to stderr")
	_ = pf.MarkHidden("today")

	rootCmd.AddCommand(
		a.addCmd(),
		a.historyCmd(),
		a.allowanceCmd(),
		a.goalCmd(),
		a.recurringCmd(),
		a.oweCmd(),
		a.summaryCmd(),
		a.insightsCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.configCmd(),
	)
	return rootCmd
}

// loadProfile reads the profile file and applies flag overrides.
func (a *app) loadProfile() error {
	p, err := config.LoadProfile(a.flagConfig)
	if err != nil {
		return err
	}
	if a.flagBackend != "" {
		p.Store.Backend = a.flagBackend
	}
	if a.flagDataDir != "" {
		p.Store.DataDir = a.flagDataDir
	}
	if a.flagSQLite != "" {
		p.Store.SQLitePath = a.flagSQLite
	}
	if a.flagUser != "" {
		p.User.ID = a.flagUser
	}
	if a.flagCurrency != "" {
		p.Display.CurrencySymbol = a.flagCurrency
	}
	if err := core.ValidateUserID(p.User.ID); err != nil {
		return err
	}
	a.profile = p
	a.render = cli.NewRenderer(a.out, p.Display.CurrencySymbol)
	return nil
}

func (a *app) open(ctx context.Context) error {
	if err := a.loadProfile(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	level := slog.LevelWarn
	if a.flagVerbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Component: log.ComponentCLI,
		Handler:   log.NewHandler(a.errOut, "text", level),
	})

	bcfg, err := backend.FromProfile(a.profile)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	a.svc = services.NewLedgerService(result.Repository, services.Options{Logger: logger})
	return nil
}

func (a *app) close() error {
	if a.svc == nil {
		return nil
	}
	err := a.svc.Close()
	a.svc = nil
	return err
}

func (a *app) user() string {
	return a.profile.User.ID
}

func (a *app) today() (core.Date, error) {
	if a.flagToday == "" {
		return core.DateOf(time.Now()), nil
	}
	d, err := core.ParseDate(a.flagToday)
	if err != nil {
		return core.Date{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) money(d decimal.Decimal) string {
	return core.FormatMoney(a.profile.Display.CurrencySymbol, d)
}
