package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/applyhawk/applyhawk/internal/audit"
	"github.com/applyhawk/applyhawk/internal/llm"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse logged LLM calls (TUI)",
	Long:  "Shows the model picker, then launches the split-pane call log view.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	entries, err := audit.ReadCallLog(cfg.LLM.CallsLog)
	if err != nil {
		logger.Error("failed to read call log", "path", cfg.LLM.CallsLog, "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("Call log is empty.")
		return nil
	}

	models := audit.Models(entries)
	choices := append([]string{"all models"}, models...)
	counts := make([]int, len(choices))
	counts[0] = len(entries)
	for i, m := range models {
		counts[i+1] = len(audit.FilterByModel(entries, m))
	}

	for {
		choice, err := audit.RunModelPicker(choices, counts)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}

		name := choices[choice]
		var selected []llm.LogEntry
		if choice == 0 {
			selected = entries
		} else {
			selected = audit.FilterByModel(entries, name)
		}

		wantQuit, err := audit.RunCallLogTUI(name, selected)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop, back to the picker
	}
}
