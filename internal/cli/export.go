package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/tier"
	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export candidates to a CSV or Excel file",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			format, _ := cmd.Flags().GetString("format")
			f, err := exportFilter(cmd)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			res, err := s.svc.ExportCandidates(cmd.Context(), format, f, &buf)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = res.Filename
			} else if st, err := os.Stat(out); err == nil && st.IsDir() {
				out = filepath.Join(out, res.Filename)
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d candidates to %s\n", res.Candidates, out)
			return err
		}),
	}
	cmd.Flags().String("format", service.FormatCSV, "Export format: csv or xlsx")
	cmd.Flags().Int("tier", -1, "Only candidates with this tier (0-5)")
	cmd.Flags().String("search", "", "Case-insensitive match on name or email")
	cmd.Flags().StringP("out", "o", "", "Output file or directory (default: dated file name in the working directory)")
	return cmd
}

func exportFilter(cmd *cobra.Command) (model.ListFilter, error) {
	var f model.ListFilter
	f.Search, _ = cmd.Flags().GetString("search")
	if cmd.Flags().Changed("tier") {
		t, _ := cmd.Flags().GetInt("tier")
		if _, ok := tier.Lookup(t); !ok {
			return f, fmt.Errorf("tier %d: %w", t, model.ErrInvalid)
		}
		f.Tier = &t
	}
	return f, nil
}
