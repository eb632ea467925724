package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cgiad/internal/client"
	"cgiad/internal/models"
	"cgiad/internal/service"
)

const defaultPollInterval = time.Second

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "submit <filename> <effect>",
		Short: "Queue a render and print the job id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Submit(cmd.Context(), client.GenerateParams{
				Filename: args[0],
				Effect:   args[1],
				Duration: duration,
			})
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", res.JobID)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "video length in seconds (server default when 0)")
	return cmd
}

func newJobCmd(opts *globalOptions) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "job <id>",
		Short: "Show a job, optionally waiting for it to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			job, err := c.Job(cmd.Context(), args[0])
			for err == nil && wait && !job.Status.Terminal() {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(interval):
				}
				job, err = c.Job(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				err = writeJSON(cmd.OutOrStdout(), job)
			} else {
				err = writeJob(cmd.OutOrStdout(), job)
			}
			if err == nil && wait {
				err = jobOutcome(job)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job completes or fails")
	cmd.Flags().DurationVar(&interval, "interval", defaultPollInterval, "poll interval with --wait")
	return cmd
}

// jobOutcome turns a failed job into a non-zero exit.
func jobOutcome(job service.JobView) error {
	if job.Status == models.JobFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	return nil
}
