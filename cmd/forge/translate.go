package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newTranslateCmd() *cobra.Command {
	var (
		outputType   string
		views        []string
		force        bool
		compressed   bool
		rootFilename string
	)

	cmd := &cobra.Command{
		Use:   "translate <object-id>",
		Short: "Submit a translation job",
		Long:  "Submits a translation job for the given source object. The object identifier is urnified automatically.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newClients()
			if err != nil {
				return err
			}

			job := derivative.TranslateJob{
				Input: derivative.JobInput{
					URN:           derivative.Urnify(args[0]),
					CompressedURN: compressed,
					RootFilename:  rootFilename,
				},
				Output: derivative.JobOutput{
					Formats: []derivative.JobFormat{
						{Type: outputType, Views: views},
					},
				},
			}

			result, err := client.Translate(cmd.Context(), job, force)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(result)
			}

			statusf("job %s: %s\n", result.URN, result.Result)

			return nil
		},
	}

	cmd.Flags().StringVar(&outputType, "type", "svf", "output format type")
	cmd.Flags().StringSliceVar(&views, "views", []string{"2d", "3d"}, "requested views")
	cmd.Flags().BoolVar(&force, "force", false, "re-translate even if derivatives exist")
	cmd.Flags().BoolVar(&compressed, "compressed", false, "source object is a zip archive")
	cmd.Flags().StringVar(&rootFilename, "root", "", "root filename inside a compressed source")

	return cmd
}
