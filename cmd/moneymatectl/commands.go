package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"moneymate/internal/analytics"
	"moneymate/internal/config"
	"moneymate/internal/core"
	"moneymate/internal/export"
)

func (a *app) addCmd() *cobra.Command {
	var date, note string
	cmd := &cobra.Command{
		Use:   "add <amount> <category>",
		Short: "Record an expense",
		Example: `  moneymatectl add 12.50 Food --note lunch
  moneymatectl add 800 Rent --date 2024-05-01`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			d, err := a.today()
			if err != nil {
				return err
			}
			if date != "" {
				if d, err = core.ParseDate(date); err != nil {
					return fmt.Errorf("date: %w", err)
				}
			}
			t, err := core.NewTransaction(d, args[1], amount, note)
			if err != nil {
				return err
			}
			t, err = a.svc.AddTransaction(cmd.Context(), a.user(), t)
			if err != nil {
				return err
			}
			a.printf("Added %s %s on %s (%s)\n", a.money(t.Amount), t.Category, t.Date, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Expense date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Optional note, at most 200 characters")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var latest int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.svc.Ledger(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			a.render.Transactions("Expenses", l.Latest(latest))
			return nil
		},
	}
	cmd.Flags().IntVarP(&latest, "latest", "l", 0, "Show only the n most recent entries")
	return cmd
}

func (a *app) allowanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allowance [amount]",
		Short: "Show or set the monthly allowance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				l, err := a.svc.Ledger(cmd.Context(), a.user())
				if err != nil {
					return err
				}
				a.printf("Monthly allowance: %s\n", a.money(l.MonthlyAllowance))
				return nil
			}
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("allowance: %w", err)
			}
			cfg, err := a.svc.SetAllowance(cmd.Context(), a.user(), amount)
			if err != nil {
				return err
			}
			a.printf("Monthly allowance set to %s\n", a.money(cfg.MonthlyAllowance))
			return nil
		},
	}
}

func (a *app) goalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "goal", Short: "Manage saving goals"}

	add := &cobra.Command{
		Use:   "add <name> <target> <deadline>",
		Short: "Add a saving goal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			deadline, err := core.ParseDate(args[2])
			if err != nil {
				return fmt.Errorf("deadline: %w", err)
			}
			g, err := core.NewSavingGoal(args[0], target, deadline)
			if err != nil {
				return err
			}
			g, err = a.svc.AddGoal(cmd.Context(), a.user(), g)
			if err != nil {
				return err
			}
			a.printf("Added goal %q: %s by %s (%s)\n", g.Name, a.money(g.TargetAmount), g.Deadline, g.ID)
			return nil
		},
	}

	var undo bool
	done := &cobra.Command{
		Use:   "done <goal-id>",
		Short: "Mark a saving goal as achieved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.svc.SetGoalDone(cmd.Context(), a.user(), args[0], !undo)
			if err != nil {
				return err
			}
			state := "done"
			if !g.Done {
				state = "open"
			}
			a.printf("Goal %q is %s\n", g.Name, state)
			return nil
		},
	}
	done.Flags().BoolVar(&undo, "undo", false, "Mark the goal as not done")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saving goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.svc.Ledger(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			for _, g := range l.SavingGoals {
				mark := " "
				if g.Done {
					mark = "x"
				}
				a.printf("[%s] %s  %s  %s by %s\n", mark, g.ID, g.Name, a.money(g.TargetAmount), g.Deadline)
			}
			return nil
		},
	}

	cmd.AddCommand(add, done, list)
	return cmd
}

func (a *app) recurringCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "recurring", Short: "Manage recurring expenses"}

	var note string
	add := &cobra.Command{
		Use:   "add <category> <amount> <daily|weekly|monthly|yearly>",
		Short: "Add a recurring expense",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			freq, err := core.ParseFrequency(args[2])
			if err != nil {
				return err
			}
			r, err := core.NewRecurringExpense(args[0], amount, freq, note)
			if err != nil {
				return err
			}
			r, err = a.svc.AddRecurring(cmd.Context(), a.user(), r)
			if err != nil {
				return err
			}
			a.printf("Added recurring %s %s %s\n", r.Category, a.money(r.Amount), r.Frequency)
			return nil
		},
	}
	add.Flags().StringVarP(&note, "note", "n", "", "Optional note")

	cmd.AddCommand(add)
	return cmd
}

func (a *app) oweCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "owe", Short: "Track money owed between you and others"}

	var note string
	add := &cobra.Command{
		Use:   "add <i_owe|owed_to_me> <person> <amount>",
		Short: "Record an owing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseOwingType(args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			o, err := core.NewOwingRecord(kind, args[1], amount, note)
			if err != nil {
				return err
			}
			o, err = a.svc.AddOwing(cmd.Context(), a.user(), o)
			if err != nil {
				return err
			}
			a.printf("Recorded %s: %s %s\n", o.Type.Label(), o.Person, a.money(o.Amount))
			return nil
		},
	}
	add.Flags().StringVarP(&note, "note", "n", "", "Optional note")

	cmd.AddCommand(add)
	return cmd
}

// monthFlags wires --month/--last onto cmd and resolves the selection.
type monthFlags struct {
	month string
	last  bool
}

func (m *monthFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&m.month, "month", "m", "", "Month to analyse (YYYY-MM, default this month)")
	cmd.Flags().BoolVar(&m.last, "last", false, "Analyse last month")
	cmd.MarkFlagsMutuallyExclusive("month", "last")
}

func (m *monthFlags) scope(today core.Date) (analytics.Scope, error) {
	switch {
	case m.last:
		return analytics.LastMonth(today), nil
	case m.month != "":
		return analytics.ParseMonth(m.month)
	default:
		return analytics.ThisMonth(today), nil
	}
}

func (a *app) summaryCmd() *cobra.Command {
	var mf monthFlags
	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"dashboard"},
		Short:   "Show the budget dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := a.today()
			if err != nil {
				return err
			}
			selected, err := mf.scope(today)
			if err != nil {
				return err
			}
			rep, err := a.svc.Dashboard(cmd.Context(), a.user(), today, selected)
			if err != nil {
				return err
			}
			a.render.Dashboard(rep)
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func (a *app) insightsCmd() *cobra.Command {
	var mf monthFlags
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Analyse one month of spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := a.today()
			if err != nil {
				return err
			}
			selected, err := mf.scope(today)
			if err != nil {
				return err
			}
			mi, err := a.svc.MonthInsights(cmd.Context(), a.user(), selected)
			if err != nil {
				return err
			}
			a.render.Insights(mi)
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var mf monthFlags
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one month of expenses as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := a.today()
			if err != nil {
				return err
			}
			selected, err := mf.scope(today)
			if err != nil {
				return err
			}
			f, err := a.svc.ExportMonth(cmd.Context(), a.user(), selected.Year, selected.Month)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := a.out.Write(f.Data)
				return err
			}
			if output == "" {
				output = f.Filename
			}
			if err := os.WriteFile(output, f.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.printf("Wrote %s\n", output)
			return nil
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file, - for stdout (default expenses_<year>_<month>.csv)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append the expenses of an exported CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			txs, err := export.ParseCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
			}
			n, err := a.svc.Import(cmd.Context(), a.user(), txs)
			if err != nil {
				return err
			}
			a.printf("Imported %d expenses\n", n)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage the moneymatectl profile"}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a profile with the current settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"no-store": "true"},
		RunE: func(*cobra.Command, []string) error {
			path := a.flagConfig
			if path == "" {
				path = config.ProfilePath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.SaveProfile(path, a.profile); err != nil {
				return err
			}
			a.printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing profile")

	show := &cobra.Command{
		Use:         "show",
		Short:       "Print the effective settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"no-store": "true"},
		RunE: func(*cobra.Command, []string) error {
			p := a.profile
			a.printf("backend:  %s\n", p.Store.Backend)
			a.printf("data dir: %s\n", p.Store.DataDir)
			a.printf("sqlite:   %s\n", p.Store.SQLitePath)
			a.printf("user:     %s\n", p.User.ID)
			a.printf("currency: %s\n", p.Display.CurrencySymbol)
			return nil
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}
