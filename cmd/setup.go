package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TelioTortay/ATEMLogger/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a starter global config (re-run anytime to edit it)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

// runSetup prompts for the device addresses and serialization defaults,
// then writes the global config file.
func runSetup() error {
	path, err := config.GlobalPath()
	if err != nil {
		return err
	}

	// Existing settings become the prompt defaults.
	existing, err := config.LoadFile(path)
	if err != nil {
		fmt.Printf("  ⚠ existing config unreadable, starting fresh: %v\n", err)
	}
	cfg := config.Merge(existing, nil)

	fmt.Println()
	fmt.Println("  atemlogger setup — press Enter to keep the value in brackets.")
	fmt.Println()

	r := bufio.NewReader(os.Stdin)
	cfg.SwitcherAddress = prompt(r, "ATEM switcher address", cfg.SwitcherAddress)
	cfg.DeckAddress = prompt(r, "HyperDeck address", cfg.DeckAddress)
	cfg.OutputPath = prompt(r, "Default EDL destination", cfg.OutputPath)
	cfg.CompensationFrames = promptInt(r, "Frame compensation", cfg.CompensationFrames)
	cfg.FrameRate = promptInt(r, "Frame rate", cfg.FrameRate)

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  ✓ Config saved to %s\n", path)
	fmt.Println("  Run 'atemlogger run' to start a session.")
	fmt.Println()
	return nil
}

func prompt(r *bufio.Reader, label, current string) string {
	fmt.Printf("  %s [%s]: ", label, current)
	line, err := r.ReadString('\n')
	if err != nil {
		return current
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func promptInt(r *bufio.Reader, label string, current int) int {
	for {
		raw := prompt(r, label, strconv.Itoa(current))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fmt.Println("    please enter a non-negative number")
			continue
		}
		return n
	}
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
