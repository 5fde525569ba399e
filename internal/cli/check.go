package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/prodimport/internal/config"
	"github.com/JonMunkholm/prodimport/internal/core"
	"github.com/JonMunkholm/prodimport/internal/logging"
)

func newCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a product CSV without touching the database",
		Long: `Check reads the file the way an import would and reports every row that
would make the import fail, plus rows repeated within the file. Nothing is
written and no database connection is needed.

The file defaults to IMPORT_FILE. The exit code is 12 when the file would
not import.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOffline()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			path := cfg.Import.File
			if len(args) == 1 {
				path = args[0]
			}

			resp, err := core.PreviewFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
			} else {
				fmt.Fprint(out, resp.String())
			}

			if !resp.Importable() {
				return &core.Error{
					Kind: core.KindData,
					Op:   "check",
					Err:  fmt.Errorf("%s: %d rows would abort the import", path, resp.Summary.ErrorRows),
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
