package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/model"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Detection settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the live detection settings",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change detection settings",
		Long:  "Change detection settings. Only the flags given are changed; values apply to notes and purges from now on. Settings named in the config file win on the next run.",
		Args:  cobra.NoArgs,
		Run:   runConfigSet,
	}
	setCmd.Flags().Duration("silence-threshold", 0, "Silence that ends a phrase")
	setCmd.Flags().Duration("purge-age", 0, "Age after which unsaved patterns are purged")
	setCmd.Flags().Int("max-history", 0, "Max notes kept in history")
	setCmd.Flags().Int("min-length", 0, "Min notes in a pattern")
	setCmd.Flags().Int("max-length", 0, "Max notes in a pattern (0 = unlimited)")
	setCmd.Flags().Bool("context-change", true, "Split phrases on key, mode or instrument change")
	setCmd.Flags().Bool("auto-save", false, "Save complex patterns automatically")
	setCmd.Flags().Float64("auto-save-threshold", 0, "Complexity needed for auto-save")

	configCmd.AddCommand(showCmd, setCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	cfg := s.det.Config()
	if textOutput() {
		printConfig(cfg)
		return
	}
	printJSON(cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) {
	var p model.ConfigPatch
	f := cmd.Flags()
	if f.Changed("silence-threshold") {
		v, _ := f.GetDuration("silence-threshold")
		p.SilenceThreshold = &v
	}
	if f.Changed("purge-age") {
		v, _ := f.GetDuration("purge-age")
		p.AutoPurgeAge = &v
	}
	if f.Changed("max-history") {
		v, _ := f.GetInt("max-history")
		p.MaxHistorySize = &v
	}
	if f.Changed("min-length") {
		v, _ := f.GetInt("min-length")
		p.MinPatternLength = &v
	}
	if f.Changed("max-length") {
		v, _ := f.GetInt("max-length")
		p.MaxPatternLength = &v
	}
	if f.Changed("context-change") {
		v, _ := f.GetBool("context-change")
		p.DetectOnContextChange = &v
	}
	if f.Changed("auto-save") {
		v, _ := f.GetBool("auto-save")
		p.AutoSaveInterestingPatterns = &v
	}
	if f.Changed("auto-save-threshold") {
		v, _ := f.GetFloat64("auto-save-threshold")
		p.AutoSaveComplexityThreshold = &v
	}
	if p.Empty() {
		exitErr("config set", fmt.Errorf("no settings given"))
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	cfg := s.det.UpdateConfig(p)
	if textOutput() {
		printConfig(cfg)
		return
	}
	printJSON(cfg)
}

func printConfig(c model.DetectionConfig) {
	fmt.Printf("silence_threshold:              %s\n", c.SilenceThreshold)
	fmt.Printf("auto_purge_age:                 %s\n", c.AutoPurgeAge)
	fmt.Printf("max_history_size:               %d\n", c.MaxHistorySize)
	fmt.Printf("min_pattern_length:             %d\n", c.MinPatternLength)
	fmt.Printf("max_pattern_length:             %d\n", c.MaxPatternLength)
	fmt.Printf("detect_on_context_change:       %t\n", c.DetectOnContextChange)
	fmt.Printf("auto_save_interesting_patterns: %t\n", c.AutoSaveInterestingPatterns)
	fmt.Printf("auto_save_complexity_threshold: %.2f\n", c.AutoSaveComplexityThreshold)
}
