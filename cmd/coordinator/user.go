package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/container"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

var newUser service.NewUser

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an account, typically the first admin",
	Example: `  coordinator user create --name "Ops" --role admin --status approved
  coordinator user create --name "Harbour Shelter" --role ngo --telegram-chat-id 123456`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ccfg := cfg.ToContainerConfig()
		ccfg.Relay.Enabled = false

		c, err := container.NewContainer(ccfg, logger)
		if err != nil {
			return err
		}
		ctx := context.Background()
		if err := c.Start(ctx); err != nil {
			return err
		}
		defer c.Close()

		user, err := c.DirectoryService().RegisterUser(ctx, newUser)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(user, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&newUser.ID, "id", "", "account id (generated when empty)")
	f.StringVar(&newUser.Name, "name", "", "display name")
	f.StringVar(&newUser.Email, "email", "", "contact email")
	f.StringVar((*string)(&newUser.Role), "role", string(entity.RoleAdmin), "donor, ngo, volunteer or admin")
	f.StringVar(&newUser.AccountStatus, "status", entity.AccountStatusApproved, "pending, approved or suspended")
	f.StringVar(&newUser.LarkOpenID, "lark-open-id", "", "Lark open_id for notifications")
	f.Int64Var(&newUser.TelegramChatID, "telegram-chat-id", 0, "Telegram chat id for notifications")
	_ = userCreateCmd.MarkFlagRequired("name")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
