package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newPropsCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "props <object-id> <view-guid>",
		Short: "Show object properties of a model view",
		Long:  "Fetches the property collection of a model view. With --wait, polls while the server is still extracting.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newClients()
			if err != nil {
				return err
			}

			props, err := client.GetProperties(cmd.Context(), derivative.Urnify(args[0]), args[1], wait)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			if !flagJSON {
				enc.SetIndent("", "  ")
			}

			return enc.Encode(props)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "poll until extraction finishes")

	return cmd
}
