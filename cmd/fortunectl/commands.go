package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fortuna/internal/auth"
	"fortuna/internal/clock"
	"fortuna/internal/database"
	"fortuna/internal/domain"
	"fortuna/internal/middleware"
	"fortuna/internal/persona"
	"fortuna/internal/repository"
	"fortuna/internal/service"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var skipPersonas bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed the persona catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("tables migrated")
			if skipPersonas {
				return nil
			}
			list, err := persona.LoadFile(e.cfg.Personas.Path)
			if err != nil {
				return err
			}
			if err := database.SeedCounterparties(e.db, list); err != nil {
				return fmt.Errorf("seed personas: %w", err)
			}
			fmt.Printf("%d personas seeded from %s\n", len(list), e.cfg.Personas.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipPersonas, "skip-personas", false, "only migrate tables")
	return cmd
}

func limitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect or reset daily message quotas",
	}

	var userID, counterpartyID string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear today's message count for a user and counterparty",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := limitService()
			if err != nil {
				return err
			}
			if err := svc.ResetLimit(context.Background(), userID, counterpartyID); err != nil {
				return err
			}
			fmt.Printf("limit reset for %s / %s\n", userID, counterpartyID)
			return nil
		},
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print today's quota status for a user and counterparty",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := limitService()
			if err != nil {
				return err
			}
			st, err := svc.CheckLimit(context.Background(), userID, counterpartyID)
			if err != nil {
				return err
			}
			fmt.Printf("%d/%d used, %d remaining\n", st.CurrentCount, st.DailyLimit, st.RemainingCount)
			return nil
		},
	}
	for _, c := range []*cobra.Command{reset, show} {
		c.Flags().StringVarP(&userID, "user", "u", "", "user id")
		c.Flags().StringVarP(&counterpartyID, "counterparty", "c", "", "counterparty id")
		_ = c.MarkFlagRequired("user")
		_ = c.MarkFlagRequired("counterparty")
		cmd.AddCommand(c)
	}
	return cmd
}

func limitService() (*service.LimitService, error) {
	e, err := openEnv(true)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{Location: e.cfg.Limits.Location()}
	return service.NewLimitService(repository.NewMessageLimitRepository(e.db), clk, e.cfg.Limits.DailyMessages, e.log), nil
}

func pointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Inspect or correct point balances",
	}

	var userID, reason string
	var amount int64
	adjust := &cobra.Command{
		Use:   "adjust",
		Short: "Apply a signed operator adjustment",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := pointService()
			if err != nil {
				return err
			}
			operator := os.Getenv("USER")
			if operator == "" {
				operator = "cli"
			}
			bal, err := svc.Adjust(context.Background(), userID, amount, reason, "cli:"+operator)
			if errors.Is(err, domain.ErrInsufficientPoints) {
				return fmt.Errorf("adjustment would make the balance negative")
			}
			if err != nil {
				return err
			}
			fmt.Printf("balance for %s is now %d\n", userID, bal)
			return nil
		},
	}
	adjust.Flags().StringVarP(&userID, "user", "u", "", "user id")
	adjust.Flags().Int64VarP(&amount, "amount", "a", 0, "signed point amount")
	adjust.Flags().StringVarP(&reason, "reason", "r", "", "ledger description")
	_ = adjust.MarkFlagRequired("user")
	_ = adjust.MarkFlagRequired("amount")

	balance := &cobra.Command{
		Use:   "balance [user-id]",
		Short: "Print a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := pointService()
			if err != nil {
				return err
			}
			bal, err := svc.Balance(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(bal)
			return nil
		},
	}

	cmd.AddCommand(adjust, balance)
	return cmd
}

func pointService() (*service.PointService, error) {
	e, err := openEnv(true)
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(e.cfg.Snowflake.NodeID)
	if err != nil {
		return nil, err
	}
	return service.NewPointService(repository.NewPointRepository(e.db, node), e.cfg.Points.SignupBonus, e.log), nil
}

func tokenCmd() *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token signed with the configured secret (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			if e.cfg.Server.Env == "production" {
				return fmt.Errorf("refusing to mint tokens in production")
			}
			tok, err := auth.GenerateAccessToken(&e.cfg.JWT, userID, role)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVar(&role, "role", domain.RoleUser, "USER or ADMIN")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func adminKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-key [key]",
		Short: "Print the bcrypt hash to store in FORTUNA_ADMIN_APIKEYHASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashAdminKey(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
