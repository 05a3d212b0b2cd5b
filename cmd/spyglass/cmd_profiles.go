package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/profile"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List AWS profiles",
	Long: `List every profile from the shared credentials and config files,
one per line. "default" is always present.`,
	RunE: runProfiles,
}

// regionsCmd represents the regions command
var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List AWS regions",
	Long: `List the regions available to the working profile, one per line.
Recently used regions are marked with an asterisk. When the provider is
unreachable the static region list is used, so the command works offline.`,
	RunE: runRegions,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(regionsCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	for _, name := range profile.List() {
		fmt.Println(name)
	}
	return nil
}

func runRegions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	source := profile.NewSource(a.disp, a.logger)
	recent := map[string]bool{}
	for _, r := range a.prefs.RecentRegions() {
		recent[r] = true
	}

	for _, region := range source.Regions(cmd.Context(), a.target()) {
		if recent[region] {
			fmt.Printf("%s *\n", region)
			continue
		}
		fmt.Println(region)
	}
	return nil
}
