package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/degreescope/degreescope/internal/utils"
	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/verify"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file or URL>",
	Short: "Check a course selection against a program's requirements",
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
		for _, s := range skips {
			utils.Log.Warnf("Skipped %s: %s", s.Path, s.Reason)
		}

		sel, err := parseSelection(cmd)
		if err != nil {
			return err
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		catalog, err := db.CatalogSnapshot(context.Background())
		if err != nil {
			return err
		}
		if len(catalog) == 0 {
			utils.Log.Warn("Course catalog is empty; unit checks will be indeterminate. Run 'degreescope db seed' first")
		}

		verdict := verify.Evaluate(&doc.Requirements, sel, catalog)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		}

		printVerdict(verdict, 0)
		return nil
	},
}

func parseSelection(cmd *cobra.Command) (verify.Selection, error) {
	var sel verify.Selection

	coursesFlag, _ := cmd.Flags().GetString("courses")
	for _, raw := range splitList(coursesFlag) {
		code, err := ident.ParseCourseCode(raw)
		if err != nil {
			return sel, fmt.Errorf("invalid course code %q: %w", raw, err)
		}
		sel.Courses = append(sel.Courses, code)
	}

	plansFlag, _ := cmd.Flags().GetString("plans")
	for _, raw := range splitList(plansFlag) {
		code, err := ident.ParseProgramCode(raw)
		if err != nil {
			return sel, fmt.Errorf("invalid plan code %q: %w", raw, err)
		}
		sel.Plans = append(sel.Plans, code)
	}

	return sel, nil
}

func splitList(s string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

var statusMarks = map[verify.Status]string{
	verify.Satisfied:     "[ok]",
	verify.Unsatisfied:   "[!!]",
	verify.Indeterminate: "[??]",
}

func printVerdict(v *verify.Verdict, depth int) {
	indent := strings.Repeat("  ", depth)
	title := v.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("%s%s %s\n", indent, statusMarks[v.Status], title)
	for _, reason := range v.Reasons {
		fmt.Printf("%s     %s\n", indent, reason)
	}
	for _, rule := range v.Rules {
		printVerdict(rule, depth+1)
	}
	for _, child := range v.Children {
		printVerdict(child, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("courses", "c", "", "Comma-separated completed course codes (e.g. CSSE1001,MATH1051)")
	evaluateCmd.Flags().StringP("plans", "p", "", "Comma-separated enrolled plan/program codes (e.g. BE2001,SOFTWREX2320)")
	evaluateCmd.Flags().Bool("json", false, "Output the verdict tree as JSON")
}
