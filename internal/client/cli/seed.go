package cli

import (
	"context"
	"math/rand"
	"sync"

	"github.com/dalemusser/clubreviews/internal/app/system/inputval"
	"github.com/dalemusser/clubreviews/internal/client/apiclient"
	"github.com/dalemusser/clubreviews/internal/client/submission"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedMajors = []string{
	"Computer Science", "Biology", "Economics", "Mechanical Engineering",
	"Psychology", "Music", "Political Science", "Chemistry", "Nursing", "Art History",
}

// fakeDraft returns a plausible random review for orgID.
func fakeDraft(fake faker.Faker, orgID string) models.ReviewDraft {
	d := models.ReviewDraft{
		OrganizationID: orgID,
		Rating:         float64(fake.IntBetween(1, 10)) / 2,
		VibeSocial:     models.IntPtr(fake.IntBetween(0, 4) * 25),
		VibeWorkload:   models.IntPtr(fake.IntBetween(0, 4) * 25),
		VibeValue:      models.IntPtr(fake.IntBetween(0, 4) * 25),
	}
	if fake.IntBetween(0, 3) > 0 {
		d.TextContent = inputval.Clamp(fake.Lorem().Sentence(fake.IntBetween(6, 40)), models.MaxTextContentLen)
	}
	if fake.IntBetween(0, 1) == 1 {
		d.UserMajor = fake.RandomStringElement(seedMajors)
	}
	return d
}

// memReceipts is a throwaway receipt store for one simulated device.
type memReceipts struct {
	mu sync.Mutex
	m  map[string]string
}

func (r *memReceipts) Get(_ context.Context, orgID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.m[orgID]
	return id, ok, nil
}

func (r *memReceipts) Set(_ context.Context, orgID, reviewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = map[string]string{}
	}
	r.m[orgID] = reviewID
	return nil
}

func (r *memReceipts) Delete(_ context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, orgID)
	return nil
}

type staticDevice string

func (d staticDevice) Resolved() (string, bool) { return string(d), d != "" }

type seedResult struct {
	Posted  int `json:"posted"`
	Refused int `json:"refused"`
	Failed  int `json:"failed"`
}

// seedReviews posts perOrg reviews to each organization, each from a fresh
// simulated device, through the same protocol a real device uses.
func seedReviews(ctx context.Context, api *apiclient.Client, fake faker.Faker, orgIDs []string, perOrg int, log *zap.Logger) seedResult {
	var res seedResult
	for _, orgID := range orgIDs {
		for i := 0; i < perOrg; i++ {
			r := &submission.Runner{
				Identity: staticDevice(uuid.NewString()),
				Ledger:   api,
				Reviews:  api,
				Receipts: &memReceipts{},
				Log:      log,
			}
			m, err := r.Check(ctx, orgID)
			if err == nil {
				_, err = r.Submit(ctx, m, fakeDraft(fake, orgID))
			}
			switch {
			case err == nil:
				res.Posted++
			case submission.IsRateLimited(err) || submission.KindOf(err) == submission.KindValidation:
				res.Refused++
			default:
				res.Failed++
				log.Warn("seed review failed", zap.String("organization_id", orgID), zap.Error(err))
			}
		}
	}
	return res
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var (
		perOrg int
		top    int
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "seed [organization-id...]",
		Short: "Post random demo reviews",
		Long: `Post random demo reviews, each from a new simulated device.

With no ids, the first --top organizations of the listing are seeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api := opts.api()

			ids := args
			if len(ids) == 0 {
				lctx, cancel := context.WithTimeout(ctx, opts.Timeout)
				out, err := api.ListOrganizations(lctx, apiclient.ListQuery{Limit: top})
				cancel()
				if err != nil {
					return WrapExitError(ExitCommandError, "list organizations", err)
				}
				for _, l := range out.Organizations {
					ids = append(ids, l.Organization.ID)
				}
			}

			fake := faker.New()
			if cmd.Flags().Changed("seed") {
				fake = faker.NewWithSeed(rand.NewSource(seed))
			}
			res := seedReviews(ctx, api, fake, ids, perOrg, opts.Logger())

			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(res)
			}
			p.line("Posted %d reviews to %d organizations (%d refused, %d failed).", res.Posted, len(ids), res.Refused, res.Failed)
			if res.Failed > 0 {
				return NewExitError(ExitCommandError, "some reviews failed")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&perOrg, "reviews", "n", 3, "reviews per organization")
	cmd.Flags().IntVar(&top, "top", 10, "organizations to seed when none are named")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for repeatable data")
	return cmd
}
