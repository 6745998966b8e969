package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expenseflow/internal/backend"
	"expenseflow/internal/calculator"
	"expenseflow/internal/core"
	"expenseflow/internal/services"
)

type openFunc func(ctx context.Context) (*backend.BackendResult, error)

// app holds the backend opened for the running command.
type app struct {
	open openFunc
	res  *backend.BackendResult
}

func newRootCmd(open openFunc) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "expensectl",
		Short:         "Track expenses from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			a.res = res
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.res == nil || a.res.Cleanup == nil {
				return nil
			}
			return a.res.Cleanup()
		},
	}

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.showCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.summaryCmd(),
		a.profileCmd(),
	)
	return root
}

func (a *app) addCmd() *cobra.Command {
	var in core.ExpenseInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.res.Expenses.CreateExpense(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s (%s)\n", e.ID, e.Title, e.Amount)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "expense title (required)")
	f.StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50 (required)")
	f.StringVar(&in.Category, "category", "", "category, defaults to Food")
	f.StringVar(&in.Date, "date", time.Now().Format(core.DateLayout), "date as YYYY-MM-DD")
	f.StringVar(&in.Description, "description", "", "optional description")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.res.Expenses.List(cmd.Context(), core.Filter{
				Category:   core.Category(category),
				SearchTerm: search,
			})
			if err != nil {
				if !errors.Is(err, core.ErrCorruptData) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: stored expenses could not be read")
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expenses found")
				return nil
			}
			writeExpenseTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category (All for every category)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on title or description")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.res.Expenses.Get(cmd.Context(), id)
			if err != nil {
				return describeID(id, err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:          %d\n", e.ID)
			fmt.Fprintf(w, "Title:       %s\n", e.Title)
			fmt.Fprintf(w, "Amount:      %s\n", e.Amount)
			fmt.Fprintf(w, "Category:    %s\n", e.Category)
			fmt.Fprintf(w, "Date:        %s\n", e.Date)
			if e.Description != "" {
				fmt.Fprintf(w, "Description: %s\n", e.Description)
			}
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var title, amount, category, date, description string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changed := func(name, v string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				return &v
			}
			patch := core.ExpensePatch{
				Title:       changed("title", title),
				Amount:      changed("amount", amount),
				Category:    changed("category", category),
				Date:        changed("date", date),
				Description: changed("description", description),
			}
			if patch.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				return nil
			}
			e, err := a.res.Expenses.UpdateExpense(cmd.Context(), id, patch)
			if err != nil {
				return describeID(id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %d: %s (%s)\n", e.ID, e.Title, e.Amount)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&amount, "amount", "", "new amount")
	f.StringVar(&category, "category", "", "new category")
	f.StringVar(&date, "date", "", "new date as YYYY-MM-DD")
	f.StringVar(&description, "description", "", "new description")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Remove an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.res.Expenses.DeleteExpense(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed expense %d\n", id)
			return nil
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, budget and insights for the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.res.Dashboard.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			for _, w := range d.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
			}
			writeSummary(cmd.OutOrStdout(), d.Summary)
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show or set up the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.res.Accounts.Profile(cmd.Context())
			if errors.Is(err, core.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile yet, run: expensectl profile setup")
				return nil
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:     %s\n", p.Name)
			fmt.Fprintf(w, "Email:    %s\n", p.Email)
			fmt.Fprintf(w, "Currency: %s\n", p.CurrencyOrDefault())
			if inc, ok := p.Income(); ok {
				fmt.Fprintf(w, "Income:   %s\n", inc.Format(p.CurrencyOrDefault()))
			}
			if b, ok := p.Budget(); ok {
				fmt.Fprintf(w, "Budget:   %s\n", b.Format(p.CurrencyOrDefault()))
			}
			return nil
		},
	}

	var in services.ProfileInput
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Set monthly income, budget and currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.res.Accounts.SetupProfile(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile setup complete (currency %s)\n", p.CurrencyOrDefault())
			return nil
		},
	}
	f := setup.Flags()
	f.StringVar(&in.MonthlyIncome, "income", "", "monthly income")
	f.StringVar(&in.MonthlyBudget, "budget", "", "monthly budget")
	f.StringVar(&in.Currency, "currency", "", "three-letter currency code")

	profile.AddCommand(setup)
	return profile
}

func writeExpenseTable(w io.Writer, items []core.Expense) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tTITLE")
	for _, e := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, e.Amount, e.Title)
	}
	tw.Flush()
}

func writeSummary(w io.Writer, s calculator.Summary) {
	cur := s.Currency
	fmt.Fprintf(w, "Summary for %s\n", s.ReferenceDate)
	fmt.Fprintf(w, "  This month:  %s\n", s.ExpensesThisMonth.Format(cur))
	fmt.Fprintf(w, "  Today:       %s\n", s.ExpensesToday.Format(cur))
	fmt.Fprintf(w, "  All time:    %s (%d expenses)\n", s.TotalExpenses.Format(cur), s.ExpenseCount)
	if s.Budget.Budget != nil {
		fmt.Fprintf(w, "  Budget:      %s, %.0f%% used\n", s.Budget.Budget.Format(cur), s.ProgressPercent)
		if s.Budget.Remaining != nil {
			if s.Budget.OverBudget {
				over := core.Money{Cents: -s.Budget.Remaining.Cents}
				fmt.Fprintf(w, "  Over budget: %s\n", over.Format(cur))
			} else {
				fmt.Fprintf(w, "  Remaining:   %s\n", s.Budget.Remaining.Format(cur))
			}
		}
	}
	if s.SavingsThisMonth != nil {
		fmt.Fprintf(w, "  Savings:     %s\n", s.SavingsThisMonth.Format(cur))
	}
	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w, "By category:")
		for _, c := range s.ByCategory {
			fmt.Fprintf(w, "  %-14s %s (%d)\n", c.Category, c.Total.Format(cur), c.Count)
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

// describe flattens validation errors into one readable line per field.
func describe(err error) error {
	verr, ok := core.AsValidation(err)
	if !ok {
		return err
	}
	lines := make([]string, 0, len(verr.Fields))
	for field, msg := range verr.Fields {
		lines = append(lines, fmt.Sprintf("  %s: %s", field, msg))
	}
	sort.Strings(lines)
	return fmt.Errorf("invalid input:\n%s", strings.Join(lines, "\n"))
}

func describeID(id int64, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("expense %d not found", id)
	}
	return describe(err)
}
