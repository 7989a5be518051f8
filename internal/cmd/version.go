package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var (
	extended    bool
	versionJSON bool
)

type versionReport struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	Go        string `json:"go,omitempty"`
	Gofulmen  string `json:"gofulmen,omitempty"`
	Crucible  string `json:"crucible,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := identityName()

		if versionJSON {
			report := versionReport{Name: name, Version: versionInfo.Version}
			if extended {
				version := crucible.GetVersion()
				report.Commit = versionInfo.Commit
				report.BuildDate = versionInfo.BuildDate
				report.Go = runtime.Version()
				report.Gofulmen = version.Gofulmen
				report.Crucible = version.Crucible
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		}

		if extended {
			// Extended version output
			_, _ = fmt.Fprintf(out, "%s %s\n", name, versionInfo.Version)
			_, _ = fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			_, _ = fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
			_, _ = fmt.Fprintf(out, "Go: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(out, "\n")

			// Gofulmen and Crucible versions
			version := crucible.GetVersion()
			_, _ = fmt.Fprintf(out, "Gofulmen: %s\n", version.Gofulmen)
			_, _ = fmt.Fprintf(out, "Crucible: %s\n", version.Crucible)
		} else {
			// Basic version output
			_, _ = fmt.Fprintf(out, "%s %s\n", name, versionInfo.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print version information as JSON")
}
