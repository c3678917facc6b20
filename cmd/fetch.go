package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/degreescope/degreescope/pkg/fetch"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <program page URL>",
	Short: "Download a program's requirement document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proxy, _ := cmd.Flags().GetString("proxy")
		client, err := fetch.NewClient(proxy)
		if err != nil {
			return err
		}

		raw, err := client.FetchProgramJSON(context.Background(), args[0])
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			fmt.Println(raw)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(raw), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(raw), outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringP("output", "o", "", "Write the document to a file instead of stdout")
}
