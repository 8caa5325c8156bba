package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/clubreviews/internal/client/apiclient"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newOrgsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgs",
		Short: "Browse organizations",
	}
	cmd.AddCommand(newOrgsListCommand(opts))
	cmd.AddCommand(newOrgsShowCommand(opts))
	cmd.AddCommand(newOrgsCategoriesCommand(opts))
	return cmd
}

func newOrgsListCommand(opts *RootOptions) *cobra.Command {
	var q apiclient.ListQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations, most reviewed first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			out, err := opts.api().ListOrganizations(ctx, q)
			if err != nil {
				return WrapExitError(ExitCommandError, "list organizations", err)
			}
			return printListing(opts.printer(cmd.OutOrStdout()), out)
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "match name or short name")
	cmd.Flags().StringVarP(&q.Category, "category", "c", "", "only this category")
	cmd.Flags().IntVar(&q.Start, "start", 1, "1-based position of the first row")
	cmd.Flags().IntVar(&q.Limit, "limit", 24, "rows per page")
	return cmd
}

func printListing(p *printer, out *apiclient.Listing) error {
	if p.json() {
		return p.writeJSON(out)
	}
	if len(out.Featured) > 0 {
		p.line("Trending:")
		for _, l := range out.Featured {
			p.line("  %s (%s, %d reviews)", l.Organization.Name, ratingText(l.Stats), countText(l.Stats))
		}
		p.line("")
	}
	if len(out.Organizations) == 0 {
		p.line("No organizations match.")
		return nil
	}
	rows := make([][]string, 0, len(out.Organizations))
	for i, l := range out.Organizations {
		rows = append(rows, []string{
			strconv.Itoa(out.Range.Start + i),
			l.Organization.ID,
			l.Organization.Name,
			ratingText(l.Stats),
			strconv.Itoa(countText(l.Stats)),
		})
	}
	if err := p.table([]string{"#", "ID", "NAME", "RATING", "REVIEWS"}, rows); err != nil {
		return err
	}
	p.line("Showing %d-%d of %d", out.Range.Start, out.Range.End, out.Range.Total)
	if out.Range.HasMore {
		p.line("More: --start %d", out.Range.NextStart)
	}
	if !out.StatsAvailable {
		p.line("Ratings are temporarily unavailable.")
	}
	return nil
}

func newOrgsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <organization-id>",
		Short: "Show an organization with its ratings and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			d, err := opts.api().Organization(ctx, args[0])
			if apiclient.IsNotFound(err) {
				return NewExitError(ExitFailure, "organization not found")
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "load organization", err)
			}
			return printDetail(opts.printer(cmd.OutOrStdout()), d, time.Now())
		},
	}
}

func printDetail(p *printer, d *apiclient.Detail, now time.Time) error {
	if p.json() {
		return p.writeJSON(d)
	}
	o := d.Organization
	p.line("%s [%s]", o.Name, o.ID)
	if len(o.CategoryNames) > 0 {
		p.line("Categories: %v", o.CategoryNames)
	}
	p.line("")
	p.line("%s", d.About)
	p.line("")
	if d.Stats == nil {
		p.line("No ratings yet.")
	} else {
		s := d.Stats
		p.line("Rating: %.1f (%s) from %d reviews", s.AverageRating, d.RatingLabel, s.ReviewCount)
		p.line("Social: %d (%s)  Workload: %d (%s)  Value: %d (%s)",
			s.AverageSocial, models.VibeLabel(models.VibeAxisSocial, s.AverageSocial),
			s.AverageWorkload, models.VibeLabel(models.VibeAxisWorkload, s.AverageWorkload),
			s.AverageValue, models.VibeLabel(models.VibeAxisValue, s.AverageValue))
	}
	for _, r := range d.Reviews {
		p.line("")
		who := "Anonymous"
		if r.UserMajor != "" {
			who = r.UserMajor + " student"
		}
		p.line("%.1f  %s  %s  (id %s)", r.Rating, who, TimeAgo(r.CreatedAt, now), r.ID)
		if r.TextContent != "" {
			p.line("  %s", r.TextContent)
		}
	}
	return nil
}

func newOrgsCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			cats, err := opts.api().Categories(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "load categories", err)
			}
			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(cats)
			}
			for _, c := range cats {
				p.line("%s", c)
			}
			return nil
		},
	}
}

// statsByID fetches batched stats for ids, degrading to none on failure.
func statsByID(ctx context.Context, api *apiclient.Client, ids []string, log *zap.Logger) map[string]models.OrganizationStats {
	rows, err := api.ReviewStats(ctx, ids)
	if err != nil {
		log.Warn("review stats unavailable", zap.Error(err))
		return nil
	}
	out := make(map[string]models.OrganizationStats, len(rows))
	for _, s := range rows {
		out[s.OrganizationID] = s
	}
	return out
}

func fmtCount(n int64) string {
	if n == 1 {
		return "1 review"
	}
	return fmt.Sprintf("%d reviews", n)
}
