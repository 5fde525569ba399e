package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/prodimport/internal/core"
	"github.com/JonMunkholm/prodimport/internal/store"
)

// progressLogInterval is how many staged rows pass between progress log lines.
var progressLogInterval = 10000

// runImport provisions the product table and imports IMPORT_FILE.
func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd.Context(), cfg.Import.Timeout)
	defer cancel()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	im := core.NewImporter(st, core.WithProgress(logProgress))
	res, err := im.ImportFile(ctx, cfg.Import.File)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	return nil
}

// logProgress reports long imports every progressLogInterval rows.
func logProgress(p core.Progress) {
	if p.Phase != core.PhaseRowProcessing || p.Rows%progressLogInterval != 0 {
		return
	}
	slog.Info("import progress",
		"run_id", p.RunID,
		"rows", p.Rows,
		"percent", p.Percent(),
	)
}
