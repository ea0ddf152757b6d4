package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/example/go-phonotts/internal/tts"
	"github.com/spf13/cobra"
)

func newVoicesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices in the style table",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vm, err := tts.LoadVoices(cfg.Paths.VoicesPath)
			if err != nil {
				return err
			}
			return writeVoices(os.Stdout, vm.ListVoices(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print voices as JSON")

	return cmd
}

func writeVoices(w io.Writer, voices []tts.Voice, asJSON bool) error {
	if asJSON {
		if voices == nil {
			voices = []tts.Voice{}
		}
		return json.NewEncoder(w).Encode(voices)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tGENDER\tSTYLES")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", v.ID, v.DisplayName, v.LanguageCode, v.Gender, v.Styles())
	}
	return tw.Flush()
}
