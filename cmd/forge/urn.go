package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newUrnCmd() *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "urn <object-id>",
		Short: "Encode an object identifier as a URL-safe URN",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if decode {
				objectID, err := derivative.Unurnify(args[0])
				if err != nil {
					return fmt.Errorf("decoding urn: %w", err)
				}

				fmt.Println(objectID)

				return nil
			}

			fmt.Println(derivative.Urnify(args[0]))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "decode a URN back to the object identifier")

	return cmd
}
