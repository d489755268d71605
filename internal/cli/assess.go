package cli

import (
	"github.com/spf13/cobra"
)

func newAssessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess <candidate-id>",
		Short: "Assess one candidate and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			m, err := multiplierFlag(cmd)
			if err != nil {
				return err
			}
			res, err := s.svc.Assess(cmd.Context(), args[0], m)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	}
	cmd.Flags().Float64("multiplier", 0, "Years-of-experience multiplier (default from config)")
	return cmd
}
