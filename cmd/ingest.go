package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/fetch"
)

// loadDocumentJSON reads a requirement document from a local file or,
// for http(s) sources, from the program catalog website.
func loadDocumentJSON(cmd *cobra.Command, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		proxy, _ := cmd.Flags().GetString("proxy")
		client, err := fetch.NewClient(proxy)
		if err != nil {
			return nil, err
		}
		raw, err := client.FetchProgramJSON(context.Background(), source)
		if err != nil {
			return nil, err
		}
		return []byte(raw), nil
	}
	return os.ReadFile(source)
}

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file or URL>",
	Short: "Parse a degree requirement document and summarize its structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadDocumentJSON(cmd, args[0])
		if err != nil {
			return err
		}

		doc, skips, err := degree.Parse(data)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			out := struct {
				Title      string        `json:"title"`
				Code       string        `json:"code"`
				Year       string        `json:"year"`
				Components []string      `json:"components"`
				Skips      []degree.Skip `json:"skips,omitempty"`
			}{
				Title: doc.Title,
				Code:  doc.Requirements.Code,
				Year:  doc.Requirements.Year,
				Skips: skips,
			}
			for _, c := range doc.Requirements.Components {
				out.Components = append(out.Components, c.Name)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("%s (%s", doc.Title, doc.Requirements.Code)
		if doc.Requirements.Year != "" {
			fmt.Printf(", %s", doc.Requirements.Year)
		}
		fmt.Println(")")
		if doc.Requirements.UnitsMinimum != nil {
			fmt.Printf("Units: %d", *doc.Requirements.UnitsMinimum)
			if doc.Requirements.UnitsMaximum != nil {
				fmt.Printf(" - %d", *doc.Requirements.UnitsMaximum)
			}
			fmt.Println()
		}
		fmt.Printf("Components: %d\n", len(doc.Requirements.Components))
		for _, c := range doc.Requirements.Components {
			refs, groups, wildcards, rules := countPayload(c.Payload)
			fmt.Printf("  %s: %d references, %d equivalence groups, %d wildcards, %d rules\n",
				c.Name, refs, groups, wildcards, rules)
		}
		if len(skips) > 0 {
			fmt.Printf("Skipped %d unusable pieces:\n", len(skips))
			for _, s := range skips {
				fmt.Printf("  %s: %s\n", s.Path, s.Reason)
			}
		}
		return nil
	},
}

func countPayload(p degree.Payload) (refs, groups, wildcards, ruleCount int) {
	switch leaf := p.(type) {
	case *degree.Node:
		if leaf.Header != nil {
			ruleCount += len(leaf.Header.AuxiliaryRules)
			if leaf.Header.SelectionRule != nil {
				ruleCount++
			}
		}
		for _, child := range leaf.Body {
			r, g, w, k := countPayload(child)
			refs += r
			groups += g
			wildcards += w
			ruleCount += k
		}
	case *degree.CurriculumReference:
		refs++
	case *degree.EquivalenceGroup:
		groups++
	case *degree.WildCardItem:
		wildcards++
	}
	return refs, groups, wildcards, ruleCount
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Bool("json", false, "Output summary as JSON")
}
