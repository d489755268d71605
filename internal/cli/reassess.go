package cli

import (
	"github.com/spf13/cobra"
)

func newReassessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reassess",
		Short: "Reassess every candidate using the background workers",
		Long:  "reassess queues every candidate, waits for the workers to drain the queue and prints the scheduling summary.",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, sess *session) error {
			m, err := multiplierFlag(cmd)
			if err != nil {
				return err
			}
			if err := sess.svc.Start(cmd.Context()); err != nil {
				return err
			}
			res, err := sess.svc.AssessAll(cmd.Context(), m)
			sess.stop()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	}
	cmd.Flags().Float64("multiplier", 0, "Years-of-experience multiplier (default from config)")
	return cmd
}
