package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/degreescope/degreescope/internal/utils"
	"github.com/degreescope/degreescope/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the degreescope catalog database",
}

func openDB(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	resolved, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	return storage.Open(resolved)
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		resolved, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return err
		}

		if _, err := os.Stat(resolved); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", resolved)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, resolved, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, resolved)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// dbStatsCmd represents the stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the courses and surveys in the database.",
	Long:  "Prints statistics about the courses and surveys in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "CATEGORY\tCOURSES\tSECATS\t")

		var totalCourses, totalSecats int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.Category, s.CourseCount, s.SecatCount)
			totalCourses += s.CourseCount
			totalSecats += s.SecatCount
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t\n", totalCourses, totalSecats)

		w.Flush()

		return nil
	},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the catalog from JSON export files",
	RunE: func(cmd *cobra.Command, args []string) error {
		coursesPath, _ := cmd.Flags().GetString("courses")
		secatsPath, _ := cmd.Flags().GetString("secats")
		if coursesPath == "" && secatsPath == "" {
			return fmt.Errorf("nothing to seed: pass --courses and/or --secats")
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if coursesPath != "" {
			n, err := db.SeedCourses(context.Background(), coursesPath)
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d new courses\n", n)
		}
		if secatsPath != "" {
			n, err := db.SeedSecats(context.Background(), secatsPath)
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d new surveys\n", n)
		}
		return nil
	},
}

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <course code>",
	Short: "Look up a course and its survey results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		course, err := db.GetCourse(ctx, args[0])
		if err != nil {
			return err
		}
		if course == nil {
			return fmt.Errorf("course not found: %s", args[0])
		}

		fmt.Printf("%s - %s\n", course.Code, course.Name)
		fmt.Printf("  Category: %s\n", course.Category)
		fmt.Printf("  Level: %s, %d units, %s\n", course.Level, course.NumUnits, course.AttendanceMode)
		fmt.Printf("  Active: %v\n", course.Active)
		if len(course.Semesters) > 0 {
			fmt.Printf("  Offered: %v\n", course.Semesters)
		}
		if course.Description != "" {
			fmt.Printf("  %s\n", course.Description)
		}

		secat, err := db.GetSecatByCourse(ctx, course.Code)
		if err != nil {
			return err
		}
		if secat == nil {
			return nil
		}
		fmt.Printf("\nSECAT: %d enrolled, %d responses (%.1f%%)\n", secat.NumEnrolled, secat.NumResponses, secat.ResponseRate)
		for _, q := range secat.Questions {
			fmt.Printf("  %s: %.0f%% agree or better\n", q.Name, q.StronglyAgree+q.Agree)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(seedCmd)
	dbCmd.AddCommand(lookupCmd)

	seedCmd.Flags().String("courses", "", "Path to a courses JSON export")
	seedCmd.Flags().String("secats", "", "Path to a secats JSON export")
}
