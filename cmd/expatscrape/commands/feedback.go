package commands

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/expatscrape/internal/feedback"
)

func newFeedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate the application",
		Long: `Append a rating (0 = poor, 5 = excellent) and an optional comment to
the feedback file.

Example:
  expatscrape feedback --rating 4 --message "Add trucks please"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			email, _ := flags.GetString("email")
			rating, _ := flags.GetInt("rating")
			message, _ := flags.GetString("message")

			err := feedback.Append(a.cfg.FeedbackFile, feedback.Entry{
				Date:    a.now(),
				Name:    name,
				Email:   email,
				Rating:  rating,
				Message: message,
			})
			if err != nil {
				return err
			}
			a.logInfo("Thank you for your feedback!")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("name", "", "your name (optional)")
	flags.String("email", "", "your email (optional)")
	flags.IntP("rating", "r", 0, "rating from 0 to 5")
	flags.StringP("message", "m", "", "how can we improve?")
	flags.String("feedback-file", "", "CSV file receiving feedback entries")
	_ = a.v.BindPFlag("feedback_file", flags.Lookup("feedback-file"))
	return cmd
}
