package cmd

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/ui"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <handle>",
	Short: "Sign in and start a session",
	Long: `Sign in with your handle and password. A bare handle is completed
with the configured domain, so 'taskflow login bryansoph' and
'taskflow login bryansoph@taskflow.com' reach the same account.

On first use against an empty store the configured seed accounts are
written, provided their secrets are supplied in the configuration; seeds
without a secret are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("login")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		accounts := newAccountService(docs)
		seeded, err := accounts.EnsureSeeded(GetConfig().Seed)
		if err != nil {
			return fmt.Errorf("failed to seed accounts: %w", err)
		}
		if seeded > 0 && verbose {
			fmt.Printf("Seeded %d account(s) into an empty store.\n", seeded)
		}

		password := loginPassword
		if password == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimSpace(string(raw))
		}

		acc, err := newGate(docs).Login(args[0], password)
		if err != nil {
			return friendlyError(err)
		}

		fmt.Println(ui.StyleSuccess.Render("✓") + " Logged in as " + ui.StyleTitle.Render(acc.DisplayName) + ui.StyleSubtle.Render(" ("+string(acc.Role)+")"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("logout")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		if err := newGate(docs).Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		acc, err := currentAccount(docs)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> %s\n", acc.DisplayName, acc.LoginHandle, ui.StyleSubtle.Render(string(acc.Role)))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted; flags leak into shell history)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
