package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		scopes []string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a 2-legged access token",
		Long:  "Requests (or serves from the in-process cache) a client-credentials token for the given scopes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authClient, _, err := newClients()
			if err != nil {
				return err
			}

			tok, err := authClient.Authenticate(cmd.Context(), scopes, force)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"access_token": tok.AccessToken,
					"token_type":   tok.TokenType,
					"expires_in":   int64(tok.ExpiresIn / time.Second),
				})
			}

			fmt.Println(tok.AccessToken)
			statusf("expires in %s\n", tok.ExpiresIn.Round(time.Second))

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", []string{"data:read"}, "scopes to request")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the token cache")

	return cmd
}
