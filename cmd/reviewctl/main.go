// Command reviewctl gives command-line access to a running review-service.
//
//	reviewctl list --company cmp_01 --status Pending
//	reviewctl stats --company cmp_01
//	reviewctl set-status app_004 Reviewed
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobboard/review-service/internal/client"
	"jobboard/review-service/internal/review"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type filterFlags struct {
	candidate, company, job, status, query string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.candidate, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&f.company, "company", "", "company id")
	cmd.Flags().StringVar(&f.job, "job", "", "job id")
	cmd.Flags().StringVar(&f.status, "status", "", "status (Pending, Reviewed, Accepted, Rejected)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search candidate name, email, location and job title")
}

func (f *filterFlags) filter() (review.Filter, error) {
	out := review.Filter{
		CandidateID: f.candidate,
		CompanyID:   f.company,
		JobID:       f.job,
		Query:       f.query,
	}
	if f.status != "" {
		st, err := review.NormalizeStatus(f.status)
		if err != nil {
			return review.Filter{}, err
		}
		out.Status = st
	}
	return out, nil
}

func newRootCmd() *cobra.Command {
	var (
		server  string
		asJSON  bool
		filters filterFlags
	)
	defaultServer := os.Getenv("REVIEW_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8083"
	}

	root := &cobra.Command{
		Use:          "reviewctl",
		Short:        "Inspect and update job application statuses",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&server, "server", defaultServer, "review-service base URL")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			apps, err := client.New(server).List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, apps)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tJOB\tCANDIDATE\tSTATUS\tAPPLIED")
			for _, a := range apps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.JobTitle, a.Candidate.Name, a.Status, a.AppliedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	filters.bind(list)

	var statsFilters filterFlags
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show per-status counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := statsFilters.filter()
			if err != nil {
				return err
			}
			s, err := client.New(server).Stats(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, s)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, st := range review.Statuses {
				fmt.Fprintf(w, "%s\t%d\n", st, s.Count(st))
			}
			fmt.Fprintf(w, "Total\t%d\n", s.Total)
			return w.Flush()
		},
	}
	statsFilters.bind(stats)

	setStatus := &cobra.Command{
		Use:   "set-status ID STATUS",
		Short: "Move an application to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := client.New(server).UpdateStatus(cmd.Context(), args[0], review.Status(args[1]))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, app)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", app.ID, app.Status)
			return nil
		},
	}

	root.AddCommand(list, stats, setStatus)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
