package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/config"
	"github.com/okian/skilltier/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrNoDatabase is returned when neither --db nor SKILLTIER_STORE_PATH is set.
var ErrNoDatabase = errors.New("no database: pass --db or set SKILLTIER_STORE_PATH")

type sessionKey struct{}

// session owns the service for one command run. stop is idempotent.
type session struct {
	svc  *service.Service
	once sync.Once
}

func (s *session) stop() {
	s.once.Do(s.svc.Stop)
}

// NewRootCommand returns the skilltierctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "skilltierctl",
		Short:         "Operate on a skill tier database",
		Long:          "skilltierctl assesses candidates, schedules bulk reassessment, prints statistics and exports candidates from a skill tier SQLite database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, &session{svc: svc}))
			return nil
		},
	}
	root.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SKILLTIER_STORE_PATH)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr")

	root.AddCommand(newAssessCommand())
	root.AddCommand(newReassessCommand())
	root.AddCommand(newStatsCommand())
	root.AddCommand(newExportCommand())
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func openService(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.StorePath = p
	}
	if cfg.StorePath == "" {
		return nil, ErrNoDatabase
	}

	l := logger.NewNop()
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		l = logger.New(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat))
	}
	return NewService(cmd.Context(), cfg, l)
}

// withSession adapts fn into a RunE that always stops the service, including
// when fn fails.
func withSession(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, ok := cmd.Context().Value(sessionKey{}).(*session)
		if !ok {
			return fmt.Errorf("%s: service not initialised", cmd.Name())
		}
		defer s.stop()
		return fn(cmd, args, s)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// multiplierFlag returns nil when --multiplier was not given.
func multiplierFlag(cmd *cobra.Command) (*float64, error) {
	if !cmd.Flags().Changed("multiplier") {
		return nil, nil
	}
	m, err := cmd.Flags().GetFloat64("multiplier")
	if err != nil {
		return nil, err
	}
	return &m, nil
}
