package cli

import (
	"github.com/spf13/cobra"
)

// NewArtifactCmd создаёт группу команд для реестра артефактов.
func NewArtifactCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Browse the artifact registry",
	}

	cmd.AddCommand(
		newArtifactListCmd(clientFn, outputFn),
	)

	return cmd
}

func newArtifactListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered artifacts under a path prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			artifacts, err := client.ListArtifacts(prefix)
			if err != nil {
				return err
			}

			headers := []string{"PATH", "NAME", "SIZE", "JOB_ID", "CREATED"}
			rows := make([][]string, len(artifacts))
			for i, a := range artifacts {
				rows[i] = []string{a.Path, a.Name, formatSize(a.Size), a.JobID, a.CreatedAt}
			}

			out.Print(headers, rows, artifacts)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "/", "Path prefix to list under")

	return cmd
}
