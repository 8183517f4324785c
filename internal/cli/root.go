package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aigpt",
	Short: "Autonomous persona with memory, mood, and evolving relationships",
	Long:  "aigpt maintains a persistent digital persona whose memory, mood, and willingness to reach out evolve with every interaction.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fortuneCmd)
	rootCmd.AddCommand(relationshipsCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(transmitCmd)
	rootCmd.AddCommand(scheduleCmd)
}
