/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jjudge-oj/usersapi/config"
	"github.com/jjudge-oj/usersapi/internal/logging"
	"github.com/jjudge-oj/usersapi/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts directly against the configured store",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every user as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		users, err := deps.Users.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), users)
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user, prompting for the password",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		name, email = strings.TrimSpace(name), strings.TrimSpace(email)
		if name == "" || email == "" {
			return fmt.Errorf("--name and --email are required")
		}

		password, err := promptPassword(cmd.ErrOrStderr(), "Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword(cmd.ErrOrStderr(), "Confirm password: ")
		if err != nil {
			return err
		}

		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		user, err := deps.Users.CreateUser(cmd.Context(), name, email, password, confirm)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var usersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all users as a JSON array to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		result, err := deps.Users.ExportUsers(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersExportCmd)

	usersCreateCmd.Flags().String("name", "", "display name")
	usersCreateCmd.Flags().String("email", "", "email address")
}

func buildDeps(cmd *cobra.Command) (*server.Deps, error) {
	cfg := config.LoadConfig()
	log := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return server.BuildDeps(cmd.Context(), cfg, log)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
