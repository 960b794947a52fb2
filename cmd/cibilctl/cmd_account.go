package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cibil-store/internal/dispatch"
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past predictions",
	RunE:  guarded(runHistory),
}

var (
	profileName    string
	profilePhone   string
	profileAddress string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Long: `Show your profile, including the latest predicted CIBIL score.
Pass --name, --phone or --address to update those fields.`,
	RunE: guarded(runProfile),
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of predictions to show (max 100)")

	profileCmd.Flags().StringVar(&profileName, "name", "", "Full name")
	profileCmd.Flags().StringVar(&profilePhone, "phone", "", "Phone number")
	profileCmd.Flags().StringVar(&profileAddress, "address", "", "Postal address")
}

func runHistory(ctx context.Context, cmd *cobra.Command, s *session.Session) error {
	recs, err := dispatch.NewClient(cfg.APIURL).Predictions(ctx, s.AccessToken, historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No predictions yet. Run: cibilctl predict")
		return nil
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.PredictedScore),
			strconv.FormatFloat(r.Income, 'f', 0, 64),
			strconv.Itoa(r.ExistingLoans),
			r.PaymentHistory,
			strconv.Itoa(r.CreditUtilization),
			strconv.Itoa(r.RecentInquiries),
		})
	}
	headers := []string{"DATE", "SCORE", "INCOME", "LOANS", "HISTORY", "UTIL%", "INQUIRIES"}
	_, err = fmt.Fprint(cmd.OutOrStdout(), renderTable(headers, rows))
	return err
}

func runProfile(ctx context.Context, cmd *cobra.Command, s *session.Session) error {
	client := dispatch.NewClient(cfg.APIURL)

	var upd entity.ProfileUpdate
	if cmd.Flags().Changed("name") {
		upd.FullName = &profileName
	}
	if cmd.Flags().Changed("phone") {
		upd.Phone = &profilePhone
	}
	if cmd.Flags().Changed("address") {
		upd.Address = &profileAddress
	}

	var (
		p   *entity.Profile
		err error
	)
	if upd.Empty() {
		p, err = client.Profile(ctx, s.AccessToken)
	} else {
		p, err = client.UpdateProfile(ctx, s.AccessToken, upd)
	}
	var se *dispatch.StatusError
	if errors.As(err, &se) && se.Status == 404 {
		return errors.New("no profile found for this account")
	}
	if err != nil {
		return err
	}
	printProfile(cmd, p)
	return nil
}

func printProfile(cmd *cobra.Command, p *entity.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:    %s\n", p.FullName)
	fmt.Fprintf(out, "Email:   %s\n", p.Email)
	fmt.Fprintf(out, "Phone:   %s\n", deref(p.Phone))
	fmt.Fprintf(out, "Address: %s\n", deref(p.Address))
	if p.CurrentCibilScore != nil {
		fmt.Fprintf(out, "CIBIL:   %d (%s)\n", *p.CurrentCibilScore, scoreBand(*p.CurrentCibilScore))
	} else {
		fmt.Fprintln(out, "CIBIL:   not predicted yet")
	}
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
