package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
)

func newManifestCmd() *cobra.Command {
	var (
		role       string
		guid       string
		nodeType   string
		deleteFlag bool
	)

	cmd := &cobra.Command{
		Use:   "manifest <object-id>",
		Short: "Show or delete the manifest of a translated design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newClients()
			if err != nil {
				return err
			}

			urn := derivative.Urnify(args[0])

			if deleteFlag {
				if err := client.DeleteManifest(cmd.Context(), urn); err != nil {
					return err
				}

				statusf("manifest deleted\n")

				return nil
			}

			manifest, err := client.GetManifest(cmd.Context(), urn)
			if err != nil {
				return err
			}

			if role != "" || guid != "" || nodeType != "" {
				matches := manifest.Search(derivative.SearchQuery{
					GUID: guid,
					Type: nodeType,
					Role: role,
				})

				if flagJSON {
					return json.NewEncoder(os.Stdout).Encode(matches)
				}

				for _, d := range matches {
					fmt.Printf("%s\t%s\t%s\t%s\n", d.GUID, d.Type, d.Role, d.URN)
				}

				return nil
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(manifest)
			}

			fmt.Printf("status: %s (%s)\n", manifest.Status, manifest.Progress)
			printTree(manifest)

			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "filter nodes by role")
	cmd.Flags().StringVar(&guid, "guid", "", "filter nodes by guid")
	cmd.Flags().StringVar(&nodeType, "type", "", "filter nodes by type")
	cmd.Flags().BoolVar(&deleteFlag, "delete", false, "delete the manifest and its derivatives")

	return cmd
}

// printTree writes the manifest tree with two-space indentation per level.
func printTree(m *derivative.Manifest) {
	depths := map[*derivative.Derivative]int{}

	m.Walk(func(d *derivative.Derivative) bool {
		depth := depths[d]
		for i := range d.Children {
			depths[&d.Children[i]] = depth + 1
		}

		label := d.Name
		if label == "" {
			label = d.GUID
		}

		fmt.Printf("%s%s [%s/%s] %s\n", strings.Repeat("  ", depth), label, d.Type, d.Role, d.Status)

		return true
	})
}
