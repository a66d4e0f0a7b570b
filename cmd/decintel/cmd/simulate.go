package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/simulation"
)

var (
	simRunID    string
	simScenario string
	simValue    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a what-if scenario against a completed run",
	Long: `Replay a what-if scenario against the analytics data of a completed
run. Scenario "fraud" varies the fraud alert threshold; scenario "risk"
varies the VIP risk retention cap.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simRunID, "run", "", "run ID the scenario references (required)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "fraud", "scenario type (fraud, risk)")
	simulateCmd.Flags().Float64Var(&simValue, "value", simulation.BaselineFraudThreshold, "scenario parameter value")
	_ = simulateCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.sim.Run(cmd.Context(), simulation.Request{
		RunID:    core.RunID(simRunID),
		Scenario: simulation.Scenario(simScenario),
		Value:    simValue,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
