package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rotina",
		Short: "Assistente de rotina pessoal para WhatsApp",
		Long:  `Rotina is a conversational task assistant: it receives WhatsApp messages, understands Portuguese task commands, and keeps per-user reminders.`,
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file (default ~/.rotina/config.yaml)")

	rootCmd.AddCommand(
		newStartCmd(),
		newChatCmd(),
		newDigestCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Rotina version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Rotina v%s\n", version)
		},
	}
}
