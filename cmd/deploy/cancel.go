package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/luxequeer/deployer/pkg/database"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <deployment-id>",
	Short: "Close a stuck pending or running deployment so a new one can start",
	Long: `Mark a pending or running deployment as failed. A worker still executing the
run finishes it, but its result is no longer recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid deployment id %q: %w", args[0], err)
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required to cancel a deployment")
		}

		db, err := database.Open(cmd.Context(), cfg.DatabaseURL, cfg.AppEnv)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		d, err := deploymentService(db).Cancel(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("cancelled "+d.ID.String()))
		return nil
	},
}
