package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cgiad/internal/client"
)

func newUploadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a product image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().UploadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", res.Filename)
		},
	}
}

func newGenerateCmd(opts *globalOptions) *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "generate <filename> <effect>",
		Short: "Render a video and wait for it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Generate(cmd.Context(), client.GenerateParams{
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
			return writePlain(cmd.OutOrStdout(), "%s %s\n", res.VideoID, res.DownloadURL)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "video length in seconds (server default when 0)")
	return cmd
}

func newFetchCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <video_id>",
		Short: "Download a rendered video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := args[0]
			dir := "."
			if output != "" {
				dir = filepath.Dir(output)
			}
			tmp, err := os.CreateTemp(dir, ".cgiadctl-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			name, err := opts.client().Fetch(cmd.Context(), videoID, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = name
			}
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return fmt.Errorf("save %s: %w", dest, err)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"video_id": videoID, "path": dest})
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", dest)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: server download name)")
	return cmd
}

func newEffectsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "effects",
		Short: "List the effect catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			effects, err := opts.client().Effects(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), effects)
			}
			for _, e := range effects {
				if err := writePlain(cmd.OutOrStdout(), "%-16s %s\n", e.ID, e.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
