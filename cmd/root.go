package cmd

import (
	"github.com/carousell/ct-go/pkg/logger/log"
	"github.com/spf13/cobra"

	"github.com/minhngoc274/chatcore/internal/app"
	"github.com/minhngoc274/chatcore/internal/server"
)

var rootCmd = &cobra.Command{
	Use:           "chatcore",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(
			server.StartServer,
			app.StartCallSweeper,
		).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
