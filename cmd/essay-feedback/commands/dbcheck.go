package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/essay-feedback/internal/server"
)

func dbCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dbcheck",
		Short: "Open the upload database, apply migrations and ping it",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			drv, pool, err := server.ConnectDB(cmd.Context(), a.cfg.Database, a.logger)
			if err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			defer server.CloseDB(drv, pool, a.logger)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", time.Since(start).Round(time.Millisecond))
			return err
		},
	}
}
