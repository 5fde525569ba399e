package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/prodimport/internal/admin"
	"github.com/JonMunkholm/prodimport/internal/store"
)

func newDropCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the product table and every row in it",
		Long: `Drop removes the produtos table from the database. All imported rows are
lost. It is a maintenance operation and never runs as part of an import.

The command refuses to run without --yes.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reset := &admin.ResetDbs{Confirmed: yes}
			if !reset.Confirmed {
				return fmt.Errorf("%w: pass --yes to drop all tables", admin.ErrNotConfirmed)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			reset.DB = st
			dropped, err := reset.DropAll(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dropped: %s\n", strings.Join(dropped, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that all tables and rows should be dropped")
	return cmd
}
