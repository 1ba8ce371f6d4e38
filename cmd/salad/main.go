// Command salad loads, validates and normalizes pipeline documents.
//
//	salad load workflow.yml --relative-uris
//	salad parse doc.json --output yaml
//	salad expand step1 --base file:///w/wf.yml#main --scoped-id
//	salad contract file:///w/wf.yml#main/step1 --base file:///w/wf.yml#main --scoped-id
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/salad"
	"github.com/reoring/salad/internal/logging"
	"github.com/reoring/salad/metrics"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	logLevel  string
	logPretty bool
	output    string
	metrics   bool

	logger     zerolog.Logger
	registry   *prometheus.Registry
	collectors *metrics.Metrics
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Validation
// failures are printed as their indented report.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if ve, ok := salad.AsValidationError(err); ok {
		fmt.Fprintln(stderr, ve.PrettyString(0))
	} else {
		fmt.Fprintln(stderr, "salad:", err)
	}
	return 1
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "salad",
		Short:         "Load and validate linked YAML/JSON documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch g.output {
			case "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (want json or yaml)", g.output)
			}
			g.logger = logging.New(logging.Config{
				Level:  g.logLevel,
				Pretty: g.logPretty,
				Output: cmd.ErrOrStderr(),
			})
			if g.metrics {
				g.registry = prometheus.NewRegistry()
				g.collectors = metrics.New(g.registry)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error or disabled")
	root.PersistentFlags().BoolVar(&g.logPretty, "log-pretty", false, "Human readable console logs")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "yaml", "Output format: json or yaml")
	root.PersistentFlags().BoolVar(&g.metrics, "metrics", false, "Print Prometheus metrics to stderr when done")

	for _, c := range []*cobra.Command{
		newLoadCmd(g),
		newParseCmd(g),
		newExpandCmd(g),
		newContractCmd(g),
	} {
		g.withMetricsDump(c)
		root.AddCommand(c)
	}
	return root
}

// withMetricsDump prints the gathered metrics after c runs, whether or not it
// succeeded.
func (g *globals) withMetricsDump(c *cobra.Command) {
	runE := c.RunE
	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := runE(cmd, args)
		if derr := g.dumpMetrics(cmd.ErrOrStderr()); err == nil {
			err = derr
		}
		return err
	}
}

func (g *globals) dumpMetrics(w io.Writer) error {
	if g.registry == nil {
		return nil
	}
	families, err := g.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (g *globals) write(w io.Writer, v salad.Value) error {
	var (
		b   []byte
		err error
	)
	if g.output == "json" {
		b, err = salad.EncodeJSON(v, true)
		if err == nil {
			b = append(b, '\n')
		}
	} else {
		b, err = salad.EncodeYAML(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
