package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"cgiad/internal/client"
)

const defaultAPIURL = "http://localhost:8000"

type globalOptions struct {
	apiURL     string
	jsonOutput bool
	httpClient *http.Client
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.apiURL, o.httpClient)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "cgiadctl",
		Short:         "Upload product images and render CGI ad videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	apiURL := os.Getenv("CGIAD_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", apiURL, "API base URL (env CGIAD_API_URL)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newUploadCmd(opts),
		newGenerateCmd(opts),
		newSubmitCmd(opts),
		newJobCmd(opts),
		newFetchCmd(opts),
		newEffectsCmd(opts),
	)
	return cmd
}
