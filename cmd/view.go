package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TelioTortay/ATEMLogger/internal/edl"
)

var viewCmd = &cobra.Command{
	Use:   "view <file.edl>",
	Short: "Display an EDL written by atemlogger as a take list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		clips, err := edl.Parse(data)
		if err != nil {
			return err
		}
		if len(clips) == 0 {
			fmt.Println("EDL contains no events.")
			return nil
		}

		fmt.Println(renderClipTable(clips))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
