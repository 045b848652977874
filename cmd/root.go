package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cellscribe/cellscribe/internal/app"
)

const defaultNotebookFile = "notebook.json"

var rootCmd = &cobra.Command{
	Use:   "cellscribe [notebook-file]",
	Short: "AI notebook assistant for the terminal",
	Long: `Cellscribe is a terminal notebook assistant. Describe changes in plain
language and the AI creates, edits and deletes cells; every change waits
for your accept or reject before it sticks.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := defaultNotebookFile
		if len(args) > 0 {
			path = args[0]
		}
		runApp(path)
	},
}

func runApp(notebookPath string) {
	application, err := app.NewApplication(notebookPath)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
