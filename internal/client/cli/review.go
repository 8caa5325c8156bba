package cli

import (
	"context"
	"errors"

	"github.com/dalemusser/clubreviews/internal/app/system/inputval"
	"github.com/dalemusser/clubreviews/internal/client/submission"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/spf13/cobra"
)

func newReviewCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Check, submit, or report reviews from this device",
	}
	cmd.AddCommand(newReviewStatusCommand(opts))
	cmd.AddCommand(newReviewSubmitCommand(opts))
	cmd.AddCommand(newReviewFlagCommand(opts))
	return cmd
}

type statusResult struct {
	OrganizationID string                    `json:"organization_id"`
	State          string                    `json:"state"`
	ReviewID       string                    `json:"review_id,omitempty"`
	Message        string                    `json:"message,omitempty"`
	ReviewCount    int64                     `json:"review_count"`
	Stats          *models.OrganizationStats `json:"stats,omitempty"`
}

func newReviewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <organization-id>",
		Short: "Show whether this device can review an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.Protocol.Check(ctx, args[0])
			res := statusResult{OrganizationID: args[0], State: m.State.String(), ReviewID: m.ReviewID}
			if err != nil && !submission.IsRateLimited(err) {
				return protocolExit(err)
			}
			if err != nil {
				res.Message = m.Err.UserMessage()
			}

			cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
			if n, err := s.API.ReviewCount(cctx, args[0]); err == nil {
				res.ReviewCount = n
			}
			if st, ok := statsByID(cctx, s.API, []string{args[0]}, s.log)[args[0]]; ok {
				res.Stats = &st
			}

			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(res)
			}
			p.line("State: %s", res.State)
			if res.Message != "" {
				p.line("%s", res.Message)
			}
			p.line("%s, rating %s", fmtCount(res.ReviewCount), ratingText(res.Stats))
			return nil
		},
	}
}

type submitFlags struct {
	rating   float64
	social   int
	workload int
	value    int
	text     string
	major    string
	truncate bool
}

// draft builds the review from flags. Vibe flags that were not given stay
// unset so the server default applies.
func (f submitFlags) draft(cmd *cobra.Command, orgID string) models.ReviewDraft {
	d := models.ReviewDraft{
		OrganizationID: orgID,
		Rating:         f.rating,
		TextContent:    f.text,
		UserMajor:      f.major,
	}
	if cmd.Flags().Changed("social") {
		d.VibeSocial = models.IntPtr(f.social)
	}
	if cmd.Flags().Changed("workload") {
		d.VibeWorkload = models.IntPtr(f.workload)
	}
	if cmd.Flags().Changed("value") {
		d.VibeValue = models.IntPtr(f.value)
	}
	if f.truncate {
		d.TextContent = inputval.Clamp(d.TextContent, models.MaxTextContentLen)
		d.UserMajor = inputval.Clamp(d.UserMajor, models.MaxUserMajorLen)
	}
	return d
}

type submitResult struct {
	OrganizationID string `json:"organization_id"`
	State          string `json:"state"`
	ReviewID       string `json:"review_id,omitempty"`
	Healed         bool   `json:"healed,omitempty"`
}

func newReviewSubmitCommand(opts *RootOptions) *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit <organization-id>",
		Short: "Submit an anonymous review",
		Long: `Submit one anonymous review for an organization from this device.

The server allows one review per organization per device. Rating is 0.5
to 5 in half steps. Vibes are 0 to 100 and default to 50 when omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.Protocol.Check(ctx, args[0])
			if err != nil {
				return protocolExit(err)
			}
			m, err = s.Protocol.Submit(ctx, m, f.draft(cmd, args[0]))
			if err != nil {
				return protocolExit(err)
			}

			res := submitResult{OrganizationID: args[0], State: m.State.String(), ReviewID: m.ReviewID, Healed: m.Healed}
			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(res)
			}
			p.line("Review submitted (id %s).", res.ReviewID)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.Float64VarP(&f.rating, "rating", "r", 0, "rating from 0.5 to 5 in half steps (required)")
	fl.IntVar(&f.social, "social", models.DefaultVibe, "social vibe, 0 strict to 100 party")
	fl.IntVar(&f.workload, "workload", models.DefaultVibe, "workload, 0 none to 100 intense")
	fl.IntVar(&f.value, "value", models.DefaultVibe, "career value, 0 none to 100 high")
	fl.StringVarP(&f.text, "text", "t", "", "review text, up to 500 characters")
	fl.StringVar(&f.major, "major", "", "your major, up to 50 characters")
	fl.BoolVar(&f.truncate, "truncate", false, "cut text and major to their limits instead of rejecting")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newReviewFlagCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flag <review-id>",
		Short: "Report a review for moderation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &submission.Runner{Reviews: opts.api(), Timeout: opts.Timeout, Log: opts.Logger()}
			if err := r.Flag(cmd.Context(), args[0]); err != nil {
				return protocolExit(err)
			}
			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(map[string]any{"review_id": args[0], "flagged": true})
			}
			p.line("Review reported. Thank you.")
			return nil
		},
	}
}

// protocolExit turns a protocol error into a user-facing exit error.
// Refusals exit 1; failures that may succeed on retry exit 2.
func protocolExit(err error) error {
	var pe *submission.Error
	if !errors.As(err, &pe) {
		return WrapExitError(ExitCommandError, "unexpected error", err)
	}
	switch pe.Kind {
	case submission.KindRateLimited, submission.KindValidation:
		return NewExitError(ExitFailure, pe.UserMessage())
	default:
		return NewExitError(ExitCommandError, pe.UserMessage())
	}
}
