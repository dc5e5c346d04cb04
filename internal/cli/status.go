package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the semantic index status",
	RunE:  runStatus,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Force a full rebuild of the semantic index",
	RunE:  runRebuild,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server operation timings",
	RunE:  runStats,
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := api.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Println(labelStyle.Render("state:"), stateStyle(string(st.State)).Render(string(st.State)))
	fmt.Println(labelStyle.Render("index present:"), st.HasIndex)
	fmt.Println(labelStyle.Render("records indexed:"), st.RecordCount)
	fmt.Println(labelStyle.Render("memory ready:"), st.MemoryInitialized)
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	// A failed rebuild comes back as a server error, message included.
	resp, err := api.Rebuild(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	fmt.Println(okStyle.Render("Index rebuilt."),
		labelStyle.Render("records:"), resp.Records,
		labelStyle.Render("state:"), stateStyle(resp.State).Render(resp.State))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	snap, err := api.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Println(labelStyle.Render("uptime:"), fmt.Sprintf("%.0fs", snap.UptimeSeconds))
	if len(snap.Operations) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	names := make([]string, 0, len(snap.Operations))
	for name := range snap.Operations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		op := snap.Operations[name]
		fmt.Printf("%s count=%d avg=%.1fms min=%dms max=%dms\n",
			headingStyle.Render(name), op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	return nil
}
