package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in to the portal and remember the token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in := bufio.NewReader(cmd.InOrStdin())

		username := ""
		if len(args) == 1 {
			username = args[0]
		} else {
			fmt.Fprint(cmd.OutOrStdout(), "Username: ")
			line, err := in.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read username: %w", err)
			}
			username = strings.TrimSpace(line)
		}

		password := os.Getenv("PRACTIZ_PASSWORD")
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			line, err := in.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if username == "" || password == "" {
			return fmt.Errorf("username and password are required")
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		c := portalClient(cmd)
		res, err := c.Login(ctx, username, password)
		if err != nil {
			return err
		}
		err = st.CredentialRepo().Save(ctx, store.Credential{
			PortalURL: c.BaseURL(),
			Token:     res.Token,
			Username:  res.User.Username,
			LearnerID: res.User.ID,
			Role:      string(res.User.Role),
			SavedAt:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("save login: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s as %s (%s).\n", c.BaseURL(), res.User.Username, res.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved portal token",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		c := portalClient(cmd)
		if err := st.CredentialRepo().Clear(cmd.Context(), c.BaseURL()); err != nil {
			return fmt.Errorf("clear login: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s.\n", c.BaseURL())
		return nil
	},
}
