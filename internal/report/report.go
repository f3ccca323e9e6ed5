// Package report renders strategies, run summaries and archive listings for
// the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/lox/fictitiousplay/internal/ledger"
	"github.com/lox/fictitiousplay/internal/statistics"
	"github.com/lox/fictitiousplay/solver"
)

// Styles holds the styles used by a Renderer.
type Styles struct {
	Header    lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Positive  lipgloss.Style
	Negative  lipgloss.Style
	Dominant  lipgloss.Style // the most likely action in a row
	Rare      lipgloss.Style // cells below the display threshold
	Border    lipgloss.Style
	Separator lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Label: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Value: r.NewStyle().
			Bold(true),
		Positive: r.NewStyle().
			Foreground(lipgloss.Color("#04B575")),
		Negative: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		Dominant: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Rare: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Border: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Separator: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Renderer formats output for a particular terminal.
type Renderer struct {
	r      *lipgloss.Renderer
	styles Styles
}

// New returns a renderer that detects the colour support of w.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{r: r, styles: newStyles(r)}
}

// NewWithProfile returns a renderer with a fixed colour profile;
// termenv.Ascii produces plain text.
func NewWithProfile(w io.Writer, profile termenv.Profile) *Renderer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return &Renderer{r: r, styles: newStyles(r)}
}

// Styles exposes the renderer's styles for callers composing their own output.
func (r *Renderer) Styles() Styles {
	return r.styles
}

const rareThreshold = 0.01

// BetTable renders player one's bet distribution, one row per hand.
func (r *Renderer) BetTable(s *solver.Strategy) string {
	return r.probabilityTable("Player 1 bet distribution (hand × bet)", s.Bets, true)
}

// CallTable renders player two's call probability, one row per hand.
func (r *Renderer) CallTable(s *solver.Strategy) string {
	return r.probabilityTable("Player 2 call probability (hand × bet faced)", s.Calls, false)
}

func (r *Renderer) probabilityTable(title string, rows [][]float64, markRowMax bool) string {
	k := len(rows)
	headers := make([]string, 0, k+1)
	headers = append(headers, "hand")
	for b := 0; b < k; b++ {
		headers = append(headers, strconv.Itoa(b))
	}

	cells := make([][]string, k)
	rowMax := make([]int, k)
	for h, row := range rows {
		cells[h] = make([]string, 0, k+1)
		cells[h] = append(cells[h], strconv.Itoa(h))
		for b, p := range row {
			cells[h] = append(cells[h], fmt.Sprintf("%.2f", p))
			if p > row[rowMax[h]] {
				rowMax[h] = b
			}
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := r.r.NewStyle().Padding(0, 1).Align(lipgloss.Right)
			if row == table.HeaderRow || col == 0 {
				return base.Inherit(r.styles.Label)
			}
			if row < 0 || row >= k {
				return base
			}
			b := col - 1
			switch {
			case markRowMax && b == rowMax[row]:
				return base.Inherit(r.styles.Dominant)
			case !markRowMax && rows[row][b] >= 0.5:
				return base.Inherit(r.styles.Dominant)
			case rows[row][b] < rareThreshold:
				return base.Inherit(r.styles.Rare)
			}
			return base
		})

	return r.styles.Header.Render(title) + "\n" + t.String()
}

type field struct {
	label string
	value string
}

func (r *Renderer) fields(title string, fields []field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.label))
	}
	var b strings.Builder
	b.WriteString(r.styles.Header.Render(title))
	b.WriteString("\n")
	for _, f := range fields {
		label := r.styles.Label.Render(fmt.Sprintf("%-*s", width, f.label))
		fmt.Fprintf(&b, "  %s  %s\n", label, f.value)
	}
	return b.String()
}

func (r *Renderer) signed(v float64, format string) string {
	s := fmt.Sprintf(format, v)
	switch {
	case v > 0:
		return r.styles.Positive.Render(s)
	case v < 0:
		return r.styles.Negative.Render(s)
	}
	return r.styles.Value.Render(s)
}

// Summary renders the headline numbers of a finished training run.
func (r *Renderer) Summary(res solver.Result) string {
	cfg := res.Strategy.Config
	lo, hi := res.Stats.ConfidenceInterval95()
	return r.fields("Fictitious play", []field{
		{"hands", strconv.Itoa(res.Hands)},
		{"strengths", strconv.Itoa(cfg.Strengths)},
		{"ante", fmt.Sprintf("%g", cfg.Ante)},
		{"smoothing", fmt.Sprintf("%g", cfg.Smoothing)},
		{"tie break", cfg.TieBreak.String()},
		{"seed", strconv.FormatInt(res.Seed, 10)},
		{"total payoff (P1)", r.signed(res.TotalPayoff, "%+.2f")},
		{"avg payoff (P1)", r.signed(res.AveragePayoff, "%+.4f")},
		{"95% CI", fmt.Sprintf("[%+.4f, %+.4f]", lo, hi)},
		{"showdown rate", fmt.Sprintf("%.1f%%", 100*res.Stats.ShowdownRate())},
	})
}

// Statistics renders a payoff summary for one seat.
func (r *Renderer) Statistics(title string, stats statistics.Statistics) string {
	lo, hi := stats.ConfidenceInterval95()
	return r.fields(title, []field{
		{"hands", strconv.Itoa(stats.Hands)},
		{"total", r.signed(stats.Sum, "%+.2f")},
		{"mean", r.signed(stats.Mean(), "%+.4f")},
		{"std dev", fmt.Sprintf("%.4f", stats.StdDev())},
		{"95% CI", fmt.Sprintf("[%+.4f, %+.4f]", lo, hi)},
		{"wins / losses", fmt.Sprintf("%d / %d", stats.Wins, stats.Losses)},
		{"showdowns", fmt.Sprintf("%d (%+.2f)", stats.ShowdownHands, stats.ShowdownSum)},
		{"folds", fmt.Sprintf("%d (%+.2f)", stats.FoldHands, stats.FoldSum)},
		{"best / worst", fmt.Sprintf("%+.2f / %+.2f", stats.Best, stats.Worst)},
	})
}

// Aggregate renders the combined result of independent runs.
func (r *Renderer) Aggregate(results []solver.Result, agg solver.Aggregate) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers("run", "seed", "hands", "total", "avg").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := r.r.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(r.styles.Label)
			}
			if col >= 2 {
				return base.Align(lipgloss.Right)
			}
			return base
		})
	for i, res := range results {
		t.Row(
			strconv.Itoa(i),
			strconv.FormatInt(res.Seed, 10),
			strconv.Itoa(res.Hands),
			fmt.Sprintf("%+.2f", res.TotalPayoff),
			fmt.Sprintf("%+.4f", res.AveragePayoff),
		)
	}

	summary := r.fields(fmt.Sprintf("Sweep of %d runs", agg.Runs), []field{
		{"hands", strconv.Itoa(agg.Stats.Hands)},
		{"avg payoff (P1)", r.signed(agg.AveragePayoff, "%+.4f")},
		{"strategy spread", fmt.Sprintf("%.4f", agg.Spread)},
		{"bet spread", fmt.Sprintf("%.4f", agg.BetSpread)},
	})
	return summary + t.String()
}

// Hand renders one traced hand on a single line.
func (r *Renderer) Hand(rec solver.HandRecord) string {
	return fmt.Sprintf("%s p1=%d bet=%d p2=%d %-4s %s",
		r.styles.Label.Render(fmt.Sprintf("#%d", rec.Index)),
		rec.P1Hand, rec.Bet, rec.P2Hand, rec.Response, r.signed(rec.Payoff, "%+.1f"))
}

// History renders archived runs, newest first.
func (r *Renderer) History(runs []ledger.Run) string {
	if len(runs) == 0 {
		return r.styles.Label.Render("no archived runs") + "\n"
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers("id", "finished", "seed", "hands", "K", "ante", "avg").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := r.r.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(r.styles.Label)
			}
			return base
		})
	for _, run := range runs {
		t.Row(
			run.ID,
			run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatInt(run.Seed, 10),
			strconv.Itoa(run.Hands),
			strconv.Itoa(run.Strengths),
			fmt.Sprintf("%g", run.Ante),
			fmt.Sprintf("%+.4f", run.AveragePayoff),
		)
	}
	return t.String() + "\n"
}
