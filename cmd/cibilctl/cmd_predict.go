package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cibil-store/internal/dispatch"
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
)

var predictForm dispatch.Form

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict your CIBIL score",
	Example: `  cibilctl predict --income 50000 --loans 2 --payment-history good \
    --utilization 30 --inquiries 1`,
	RunE: guarded(runPredict),
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictForm.Income, "income", "", "Monthly income")
	f.StringVar(&predictForm.ExistingLoans, "loans", "", "Number of existing loans")
	f.StringVar(&predictForm.PaymentHistory, "payment-history", "good", "excellent, good, fair or poor")
	f.StringVar(&predictForm.CreditUtilization, "utilization", "", "Credit utilization percent")
	f.StringVar(&predictForm.RecentInquiries, "inquiries", "", "Credit inquiries in the last 6 months")
}

func runPredict(ctx context.Context, cmd *cobra.Command, s *session.Session) error {
	view := &terminalView{out: cmd.OutOrStdout()}
	token := func(context.Context) (string, error) { return s.AccessToken, nil }
	d := dispatch.New(cfg.APIURL, token, view, logger)

	_, err := d.Submit(ctx, predictForm)
	return err
}

// terminalView prints dispatcher progress.
type terminalView struct {
	out io.Writer
}

func (v *terminalView) SetLoading(loading bool) {
	if loading {
		fmt.Fprintln(v.out, "Calculating...")
	}
}

func (v *terminalView) ShowError(message string) {
	fmt.Fprintln(v.out, message)
}

func (v *terminalView) ShowResult(p *entity.Prediction) {
	fmt.Fprintln(v.out, "Score Calculated!")
	fmt.Fprintf(v.out, "\nPredicted CIBIL score: %d (%s)\n\n", p.PredictedScore, scoreBand(p.PredictedScore))
	fmt.Fprintln(v.out, "Factors:")
	for _, f := range p.Factors {
		sign := "-"
		if f.Positive {
			sign = "+"
		}
		fmt.Fprintf(v.out, "  %s %-28s %3d%%\n", sign, f.Name, f.Impact)
	}
	fmt.Fprintln(v.out, "\nSuggestions:")
	for i, s := range p.Suggestions {
		fmt.Fprintf(v.out, "  %d. %s\n", i+1, strings.TrimSpace(s))
	}
}

func scoreBand(score int) string {
	switch {
	case score >= 750:
		return "Excellent"
	case score >= 600:
		return "Fair"
	}
	return "Poor"
}
