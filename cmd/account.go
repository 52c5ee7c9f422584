package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts", "user"},
	Short:   "Manage accounts (manager only)",
}

var accountShowSecrets bool

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("account list")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		if _, err := requireManager(docs); err != nil {
			return friendlyError(err)
		}

		roster, err := newAccountService(docs).List()
		if err != nil {
			return err
		}
		if len(roster) == 0 {
			fmt.Println("No accounts.")
			return nil
		}

		table := &ui.Table{
			Headers:  []string{"ID", "NAME", "HANDLE", "ROLE", "SECRET"},
			MaxWidth: 32,
		}
		for _, acc := range roster {
			secret := maskSecret(acc.CredentialSecret)
			if accountShowSecrets {
				secret = acc.CredentialSecret
			}
			table.Rows = append(table.Rows, []string{
				acc.ID,
				acc.DisplayName,
				acc.LoginHandle,
				string(acc.Role),
				secret,
			})
		}
		fmt.Println(table.Render())
		return nil
	},
}

// maskSecret hides all but the first character, so rows stay tellable
// apart without exposing credentials on screen.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}

var (
	accountAddName   string
	accountAddSecret string
	accountAddRole   string
)

var accountAddCmd = &cobra.Command{
	Use:   "add <handle>",
	Short: "Create an account",
	Long: `Create an account. The handle is normalized (lowercased, completed
with the configured domain) and the account id is derived from it, so
adding the same handle twice overwrites the same record.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("account add")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		if _, err := requireManager(docs); err != nil {
			return friendlyError(err)
		}

		acc, err := newAccountService(docs).Create(account.CreateInput{
			DisplayName: accountAddName,
			Handle:      args[0],
			Secret:      accountAddSecret,
			Role:        models.Role(accountAddRole),
		})
		if err != nil {
			return friendlyError(err)
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Created " + ui.StyleTitle.Render(acc.DisplayName) + " " + ui.StyleSubtle.Render("("+acc.ID+")"))
		return nil
	},
}

var (
	accountUpdateName   string
	accountUpdateHandle string
	accountUpdateSecret string
	accountUpdateRole   string
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update <account-id>",
	Short: "Update an account",
	Long: `Update an account. Only the flags you pass change. The account id
stays the same even when the handle changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("account update")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		if _, err := requireManager(docs); err != nil {
			return friendlyError(err)
		}

		fields := account.UpdateFields{}
		if cmd.Flags().Changed("name") {
			fields.DisplayName = &accountUpdateName
		}
		if cmd.Flags().Changed("handle") {
			fields.Handle = &accountUpdateHandle
		}
		if cmd.Flags().Changed("password") {
			fields.Secret = &accountUpdateSecret
		}
		if cmd.Flags().Changed("role") {
			r := models.Role(accountUpdateRole)
			fields.Role = &r
		}

		if err := newAccountService(docs).Update(args[0], fields); err != nil {
			return friendlyError(err)
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Updated " + args[0])
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:     "delete <account-id>",
	Aliases: []string{"rm"},
	Short:   "Delete an account",
	Long: `Delete an account. You cannot delete the account you are signed in
as; hand the manager role over first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("account delete")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		actor, err := requireManager(docs)
		if err != nil {
			return friendlyError(err)
		}

		if err := newAccountService(docs).Delete(args[0], actor.ID); err != nil {
			return friendlyError(err)
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Deleted " + args[0])
		return nil
	},
}

func init() {
	accountListCmd.Flags().BoolVar(&accountShowSecrets, "show-secrets", false, "print secrets in clear instead of masked")

	accountAddCmd.Flags().StringVarP(&accountAddName, "name", "n", "", "display name (required)")
	accountAddCmd.Flags().StringVarP(&accountAddSecret, "password", "p", "", "password (required)")
	accountAddCmd.Flags().StringVarP(&accountAddRole, "role", "r", "employee", "role (manager, employee)")
	_ = accountAddCmd.MarkFlagRequired("name")
	_ = accountAddCmd.MarkFlagRequired("password")

	accountUpdateCmd.Flags().StringVarP(&accountUpdateName, "name", "n", "", "new display name")
	accountUpdateCmd.Flags().StringVar(&accountUpdateHandle, "handle", "", "new login handle")
	accountUpdateCmd.Flags().StringVarP(&accountUpdateSecret, "password", "p", "", "new password")
	accountUpdateCmd.Flags().StringVarP(&accountUpdateRole, "role", "r", "", "new role (manager, employee)")

	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}
