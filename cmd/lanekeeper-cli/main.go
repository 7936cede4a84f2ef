// Lanekeeper CLI — инструмент командной строки для управления
// launches и просмотра jobs и артефактов через HTTP API.
//
// Использование:
//
//	lanekeeper [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	launch    Управление launches
//	job       Просмотр jobs
//	artifact  Реестр артефактов
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Lanekeeper/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "lanekeeper",
		Short:         "Lanekeeper sequencing run launch tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewLaunchCmd(clientFn, outputFn),
		cli.NewJobCmd(clientFn, outputFn),
		cli.NewArtifactCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
