package cmds

import "github.com/spf13/cobra"

func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewChatCommand())
	rootCmd.AddCommand(NewAskCommand())
	rootCmd.AddCommand(NewSessionsCommand())
	rootCmd.AddCommand(NewModelsCommand())
	rootCmd.AddCommand(NewTestConnectionCommand())
	rootCmd.AddCommand(NewConfigCommand())
}
