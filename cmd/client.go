package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/store"
)

var errNotSignedIn = errors.New("not signed in; run `practiz login` first")

// portalClient returns a client for the configured portal. --portal
// overrides PRACTIZ_PORTAL_URL.
func portalClient(cmd *cobra.Command) *portal.Client {
	cfg := portal.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("portal"); u != "" {
		cfg.BaseURL = u
	}
	return portal.New(cfg, nil)
}

// signedInClient returns a client carrying PRACTIZ_TOKEN or the saved
// login for the portal, and the learner it belongs to.
func signedInClient(ctx context.Context, cmd *cobra.Command, st *store.Store) (*portal.Client, portal.Claims, error) {
	c := portalClient(cmd)
	token := c.Token()
	if token == "" {
		cred, err := st.CredentialRepo().Load(ctx, c.BaseURL())
		if err != nil {
			return nil, portal.Claims{}, fmt.Errorf("load saved login: %w", err)
		}
		if cred == nil {
			return nil, portal.Claims{}, errNotSignedIn
		}
		token = cred.Token
	}
	claims, err := portal.Learner(token)
	if err != nil {
		return nil, portal.Claims{}, fmt.Errorf("saved login: %w", err)
	}
	return c.WithToken(token), claims, nil
}
