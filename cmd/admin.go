package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/vendor-portal/internal/auth"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator account commands",
}

var (
	adminUsername  string
	adminEmail     string
	adminPassword  string
	adminFirstName string
	adminLastName  string
)

var createAdminCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	Long:  `Create an account with the admin role. The public /register endpoint does not accept that role.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		lg := logger.LoggerWrapper()
		bus := events.NewEventBus(lg)
		bus.Subscribe(events.AllEvents, events.AuditLogHandler(lg))

		tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
		service := auth.NewService(authPostgres.NewAuthRepository(db), tokens, bus, cfg.Security.BCryptCost, lg)

		resp, err := service.CreateAdmin(context.Background(), auth.RegisterDTO{
			Username:  adminUsername,
			Email:     adminEmail,
			Password:  adminPassword,
			FirstName: adminFirstName,
			LastName:  adminLastName,
		})
		if err != nil {
			log.Fatalf("failed to create admin: %v", err)
		}

		fmt.Printf("Created admin %s (user_id %d)\n", resp.Username, resp.UserID)
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminFirstName, "first-name", "Site", "admin first name")
	createAdminCmd.Flags().StringVar(&adminLastName, "last-name", "Admin", "admin last name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(adminCmd)
}
