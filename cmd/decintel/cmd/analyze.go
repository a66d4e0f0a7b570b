package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Run one analytical query through the full pipeline",
	Long: `Execute a single pipeline run for the given query and print the
resulting decision. The run is persisted to history like any run started
through the API.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full run context as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	rc, err := a.engine.Execute(cmd.Context(), query)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rc)
	}

	fmt.Printf("Run:      %s\n", rc.RunID)
	fmt.Printf("Decision: %s\n", rc.Decision)
	fmt.Printf("Insights: %s\n", rc.Insights)
	fmt.Printf("Report:   %s\n", rc.ReportPath)
	return nil
}
