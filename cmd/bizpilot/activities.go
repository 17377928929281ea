// cmd/bizpilot/activities.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"bizpilot/pkg/registry"

	"github.com/spf13/cobra"
)

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

// newActivitiesCmd inspects the workflow activity registry.
func newActivitiesCmd(out io.Writer) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List and validate the workflow activities this service implements",
	}
	cmd.PersistentFlags().StringVar(&path, "file", "", "registry file (default: the built-in registry)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(*cobra.Command, []string) error {
			reg, err := loadRegistry(path)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
			for _, a := range reg.Activities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
			}
			return tw.Flush()
		},
	}, &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry",
		RunE: func(*cobra.Command, []string) error {
			reg, err := loadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	})
	return cmd
}
