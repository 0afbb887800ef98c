package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/notargets/DGMesh/mesh"
	"github.com/notargets/DGMesh/probe"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	verbose bool
	quiet   bool
	workers int
	format  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "meshprobe",
		Short: "Build a mesh from a description and run geometric queries against it",
		Long: `meshprobe builds a point cloud, curve, image, structured quad surface or
lattice volume from a TOML or YAML description and evaluates locate and
closest point queries over batches of points.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logrus.InfoLevel
			switch {
			case opts.verbose:
				level = logrus.DebugLevel
			case opts.quiet:
				level = logrus.WarnLevel
			}
			for _, l := range []*logrus.Logger{mesh.Log, probe.Log} {
				l.SetLevel(level)
				l.SetOutput(cmd.ErrOrStderr())
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log derived table builds")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "log warnings only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(newRunCmd(opts), newCheckCmd(), newKindsCmd())
	return root
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run the queries of a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := probe.Load(args[0])
			if err != nil {
				return err
			}
			if opts.workers > 0 {
				cfg.Workers = opts.workers
			}
			m, err := probe.BuildMesh(cfg.Mesh)
			if err != nil {
				return err
			}
			reports, err := probe.Run(cmd.Context(), m, cfg)
			if err != nil {
				return err
			}
			switch strings.ToLower(opts.format) {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(reports); err != nil {
					return err
				}
				return enc.Close()
			case "summary":
				return writeSummary(cmd.OutOrStdout(), m, reports)
			}
			return fmt.Errorf("unknown output format %q", opts.format)
		},
	}
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "override the configured worker count")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "summary", "output format, summary or yaml")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a description and build its mesh without running queries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := probe.Load(args[0])
			if err != nil {
				return err
			}
			m, err := probe.BuildMesh(cfg.Mesh)
			if err != nil {
				return err
			}
			m.Synchronize(mesh.BoundingBox | mesh.Epsilon)
			box := m.BoundingBox()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes, %d elems, %d queries\n",
				m.Kind(), m.NumNodes(), m.NumElems(), len(cfg.Queries))
			if box.Valid() {
				fmt.Fprintf(cmd.OutOrStdout(), "bounds %v to %v, epsilon %g\n", box.Min, box.Max, m.Epsilon())
			}
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the mesh kinds and query ops a description may name",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "kinds:")
			for k := mesh.PointCloudKind; k <= mesh.LatVolKind; k++ {
				fmt.Fprintf(w, "  %s\n", k)
			}
			fmt.Fprintln(w, "ops:")
			for o := probe.LocateNode; o <= probe.ClosestElems; o++ {
				fmt.Fprintf(w, "  %s\n", o)
			}
		},
	}
}

func writeSummary(out io.Writer, m mesh.VMesh, reports []probe.Report) error {
	fmt.Fprintf(out, "%s: %d nodes, %d elems\n", m.Kind(), m.NumNodes(), m.NumElems())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OP\tPOINTS\tHITS\tPARTITIONS\tMIN DIST\tMEAN DIST\tMAX DIST")
	for _, r := range reports {
		if r.Dist == nil {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t-\t-\t-\n", r.Op, r.Points, r.Hits, r.Partitions)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.6g\t%.6g\t%.6g\n",
			r.Op, r.Points, r.Hits, r.Partitions, r.Dist.Min, r.Dist.Mean, r.Dist.Max)
	}
	return tw.Flush()
}
