package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newThumbnailCmd() *cobra.Command {
	var (
		output string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "thumbnail <object-id>",
		Short: "Download the rendered thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newClients()
			if err != nil {
				return err
			}

			buf, err := client.GetThumbnail(cmd.Context(), derivative.Urnify(args[0]), width, height)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = os.Stdout.Write(buf)
				return err
			}

			if err := os.WriteFile(output, buf, 0o644); err != nil {
				return fmt.Errorf("writing thumbnail: %w", err)
			}

			statusf("wrote %s (%d bytes)\n", output, len(buf))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "thumbnail.png", "output file, or - for stdout")
	cmd.Flags().IntVar(&width, "width", 0, "requested width")
	cmd.Flags().IntVar(&height, "height", 0, "requested height")

	return cmd
}
