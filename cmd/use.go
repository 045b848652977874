package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/cellscribe/cellscribe/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [profile-name] [notebook-file]",
	Short: "Switch to a profile and open a notebook",
	Long:  `Switch to the specified profile and immediately open the notebook.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		profileName := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if _, exists := cfg.Profiles[profileName]; !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		cfg.ActiveProfile = profileName
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		path := defaultNotebookFile
		if len(args) > 1 {
			path = args[1]
		}
		runApp(path)
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
