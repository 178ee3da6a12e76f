package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newDownloadCmd() *cobra.Command {
	var (
		output    string
		chunkSize int64
	)

	cmd := &cobra.Command{
		Use:   "download <object-id> <derivative-urn>",
		Short: "Download a derivative file in chunks",
		Long:  "Streams a derivative file to disk using bounded range requests, so arbitrarily large derivatives never sit in memory whole.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newClients()
			if err != nil {
				return err
			}

			var opts []derivative.DownloadOption
			if chunkSize > 0 {
				opts = append(opts, derivative.WithChunkSize(chunkSize))
			}

			dl, err := client.OpenDerivative(cmd.Context(), derivative.Urnify(args[0]), args[1], opts...)
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "-" {
				out, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer out.Close()
			}

			written, err := dl.Copy(cmd.Context(), out)
			if err != nil {
				return err
			}

			statusf("wrote %s (%d of %d bytes)\n", output, written, dl.Size())

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "max bytes per range request (default 16 MiB)")

	return cmd
}
