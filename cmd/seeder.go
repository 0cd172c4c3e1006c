package cmd

import (
	"fmt"

	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/frahmantamala/pisda/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the bootstrap admin and the default tools configuration",
	Long: `Create the bootstrap admin account when missing and add a tools
configuration entry for every installed tool. --clear resets the tools
configuration first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		log := logger.LoggerWrapper()

		store, err := openStorage(cfg.Storage, log)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := buildServices(cfg, store, events.Nop{}, log)

		admin, created, err := svc.Users.EnsureBootstrapAdmin(cmd.Context(), cfg.Security.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			fmt.Println("Seeded admin user:", admin.Username)
		} else {
			fmt.Println("admin user already exists:", user.BootstrapUsername)
		}

		added, err := svc.Tools.SeedDefaults(cmd.Context(), clearData)
		if err != nil {
			return err
		}
		if clearData {
			fmt.Println("Tools configuration reset")
		}
		for _, name := range added {
			fmt.Println("Seeded tool:", name)
		}
		return nil
	},
}
