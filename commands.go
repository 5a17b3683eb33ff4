package main

import (
	"fmt"
	"strings"

	"api-doc-explorer/internal/executor"
	"api-doc-explorer/internal/reporter"
	"api-doc-explorer/internal/types"
	"api-doc-explorer/internal/viewer"

	"github.com/spf13/cobra"
)

var (
	expandPaths   []string
	describePaths []string
	prefetch      bool
	formats       []string
	save          bool

	endpointsCmd = &cobra.Command{
		Use:   "endpoints",
		Short: "List the operations of the OpenAPI document",
		Args:  cobra.NoArgs,
		RunE:  runEndpoints,
	}

	exploreCmd = &cobra.Command{
		Use:   "explore [METHOD ROUTE]",
		Short: "Render the parameter trees of one operation, or of every operation",
		Example: `  api-doc-explorer explore GET /pets/{petId} --expand body/owner --describe body/owner/email
  api-doc-explorer explore --prefetch --format json`,
		Args: cobra.RangeArgs(0, 2),
		RunE: runExplore,
	}
)

func init() {
	exploreCmd.Flags().StringSliceVar(&expandPaths, "expand", nil, "Expand node at location/pointer, e.g. body/owner")
	exploreCmd.Flags().StringSliceVar(&describePaths, "describe", nil, "Load the description of the leaf at location/pointer")
	exploreCmd.Flags().BoolVar(&prefetch, "prefetch", false, "Load every description before rendering")
	exploreCmd.Flags().StringSliceVar(&formats, "format", nil, "Output formats (text, json), overrides reporting.format")
	exploreCmd.Flags().BoolVar(&save, "save", false, "Write reports to reporting.output_dir instead of stdout")
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	endpoints, err := loadEndpoints(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ep := range endpoints {
		line := ep.Key()
		if ep.Summary != "" {
			line += "  " + ep.Summary
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	endpoints, err := loadEndpoints(ctx)
	if err != nil {
		return err
	}
	selected, err := selectEndpoints(endpoints, args)
	if err != nil {
		return err
	}

	src, release, err := buildSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	prefetcher := executor.NewPrefetcher(executor.Config{
		Workers: cfg.View.PrefetchWorkers,
		Retry: executor.RetryConfig{
			Attempts: cfg.View.Retry.Attempts,
			Delay:    cfg.RetryDelay(),
		},
	}, log.Logger)

	var snapshots []viewer.Snapshot
	for _, ep := range selected {
		view, err := viewer.New(ep, endpoints,
			viewer.WithSource(src),
			viewer.WithLogger(log.Logger),
			viewer.WithExpanded(append(append([]string(nil), cfg.View.ExpandedPaths...), expandPaths...)...),
		)
		if err != nil {
			return err
		}

		if err := describeLeaves(cmd, view); err != nil {
			view.Close()
			return err
		}
		if prefetch {
			if _, err := prefetcher.Run(ctx, view.Sessions()); err != nil {
				view.Close()
				return err
			}
		}

		snapshots = append(snapshots, view.Snapshot())
		view.Close()
	}

	r := reporter.NewReporter(reporter.ReportingConfig{Format: cfg.Reporting.Format, OutputDir: cfg.Reporting.OutputDir})
	report := reporter.NewReport(snapshots)
	if !save {
		return r.Render(cmd.OutOrStdout(), report)
	}

	paths, err := r.GenerateReport(report)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", p)
	}
	return nil
}

// describeLeaves loads the leaves named by --describe that exist in view.
func describeLeaves(cmd *cobra.Command, view *viewer.EndpointView) error {
	for _, p := range describePaths {
		loc, path, err := viewer.ParsePath(p)
		if err != nil {
			return fmt.Errorf("--describe %q: %w", p, err)
		}
		if _, ok := view.Section(loc); !ok {
			continue
		}
		settle, err := view.RequestDescription(loc, path)
		if err != nil {
			log.Debug("skipping description", "endpoint", view.Endpoint().Key(), "path", p, "error", err)
			continue
		}
		if _, err := settle.Wait(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

func selectEndpoints(endpoints []types.Endpoint, args []string) ([]types.Endpoint, error) {
	switch len(args) {
	case 0:
		return endpoints, nil
	case 1:
		return nil, fmt.Errorf("expected METHOD ROUTE, got %q", args[0])
	}
	key := strings.ToUpper(args[0]) + " " + args[1]
	for _, ep := range endpoints {
		if ep.Key() == key {
			return []types.Endpoint{ep}, nil
		}
	}
	return nil, fmt.Errorf("operation %s not found", key)
}
