package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для просмотра jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect jobs",
	}

	cmd.AddCommand(
		newJobShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "LAUNCH_ID", "TYPE", "STATUS", "ATTEMPT", "ERROR", "CREATED"},
				[][]string{{job.ID, job.LaunchID, job.Type, job.Status, strconv.Itoa(job.Attempt), job.Error, job.CreatedAt}},
				job,
			)
			return nil
		},
	}
}
