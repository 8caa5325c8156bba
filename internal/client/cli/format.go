package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
)

// TimeAgo renders t relative to now in the coarsest unit that has passed
// more than once: "3 days ago", "1 hour ago", "Just now".
func TimeAgo(t, now time.Time) string {
	seconds := math.Floor(now.Sub(t).Seconds())
	units := []struct {
		secs float64
		name string
	}{
		{31536000, "year"},
		{2592000, "month"},
		{86400, "day"},
		{3600, "hour"},
		{60, "minute"},
	}
	for _, u := range units {
		if interval := seconds / u.secs; interval > 1 {
			n := int(math.Floor(interval))
			if n == 1 {
				return fmt.Sprintf("1 %s ago", u.name)
			}
			return fmt.Sprintf("%d %ss ago", n, u.name)
		}
	}
	return "Just now"
}

// ratingText renders a rating and its label, or a dash when there is none.
func ratingText(s *models.OrganizationStats) string {
	if s == nil || s.ReviewCount == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f %s", s.AverageRating, models.RatingLabel(s.AverageRating))
}

func countText(s *models.OrganizationStats) int {
	if s == nil {
		return 0
	}
	return s.ReviewCount
}

// printer writes either JSON or tab-aligned text.
type printer struct {
	format string
	w      io.Writer
}

func (o *RootOptions) printer(w io.Writer) *printer {
	return &printer{format: o.Format, w: w}
}

func (p *printer) json() bool { return p.format == "json" }

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
