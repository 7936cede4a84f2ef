package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewLaunchCmd создаёт группу команд для управления launches.
func NewLaunchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Manage launches",
	}

	cmd.AddCommand(
		newLaunchListCmd(clientFn, outputFn),
		newLaunchStartCmd(clientFn, outputFn),
		newLaunchShowCmd(clientFn, outputFn),
		newLaunchJobsCmd(clientFn, outputFn),
	)

	return cmd
}

func newLaunchListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var runID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List launches",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			launches, err := client.ListLaunches(ListLaunchesOpts{
				RunID:  runID,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "RUN_ID", "STATUS", "WORKFLOW", "CREATED"}
			rows := make([][]string, len(launches))
			for i, l := range launches {
				rows[i] = []string{l.ID, l.RunID, l.Status, l.Request.Workflow, l.CreatedAt}
			}

			out.Print(headers, rows, launches)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Filter by sequencing run ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, LAUNCHING, LAUNCHED, COMPLETED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newLaunchStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var requestFile string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a launch from a request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(requestFile)
			if err != nil {
				return fmt.Errorf("failed to read request file: %w", err)
			}

			var req CreateLaunchRequest
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("request file is not valid YAML: %w", err)
			}

			launch, err := client.CreateLaunch(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Launch created: %s", launch.ID))
			out.Print(
				[]string{"ID", "STATUS", "WORKFLOW", "CREATED"},
				[][]string{{launch.ID, launch.Status, launch.Request.Workflow, launch.CreatedAt}},
				launch,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "Path to launch request YAML file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newLaunchShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show launch details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			launch, err := client.GetLaunch(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "RUN_ID", "STATUS", "TARBALL", "ERROR", "CREATED"},
				[][]string{{launch.ID, launch.RunID, launch.Status, launch.TarballRef.Path, launch.Error, launch.CreatedAt}},
				launch,
			)
			return nil
		},
	}
}

func newLaunchJobsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs LAUNCH_ID",
		Short: "List jobs in a launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "TYPE", "STATUS", "GATE", "ATTEMPT", "ERROR"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{j.ID, j.Type, j.Status, j.Gate, strconv.Itoa(j.Attempt), j.Error}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}
