package main

import (
	"strings"

	"github.com/dshills/byteme/internal/profile"
	"github.com/spf13/cobra"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [name-or-file]",
		Short: "List metric profiles, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles(a, args)
		},
	}
}

func runProfiles(a *app, args []string) error {
	if len(args) == 1 {
		p, err := profile.Load(args[0])
		if err != nil {
			return exitError(3, "%v", err)
		}
		return a.write("", profile.Describe(p))
	}

	names, err := profile.List()
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, name := range names {
		p, err := profile.LoadBuiltin(name)
		if err != nil {
			return exitError(3, "%v", err)
		}
		b.WriteString(profile.Describe(p))
	}
	return a.write("", b.String())
}
