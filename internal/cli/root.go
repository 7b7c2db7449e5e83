// Package cli implements shopctl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type envKey struct{}

// NewRootCommand builds the shopctl command tree. setup runs once before any
// leaf command and its Env is available through envFrom.
func NewRootCommand(setup SetupFunc) *cobra.Command {
	var (
		envFile string
		cleanup func()
	)
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operate the shopfront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, done, err := setup(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			cleanup = done
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, env))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cleanup != nil {
				cleanup()
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading config")

	root.AddCommand(
		newOrdersCommand(),
		newUsersCommand(),
		newReviewsCommand(),
		newMarketplaceCommand(),
		newSeedCommand(),
		newMigrateCommand(&envFile),
	)
	return root
}

// Execute runs shopctl against the real environment.
func Execute() {
	root := NewRootCommand(DefaultSetup)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envFrom(cmd *cobra.Command) *Env {
	env, _ := cmd.Context().Value(envKey{}).(*Env)
	return env
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
