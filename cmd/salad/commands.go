package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/salad"
	"github.com/reoring/salad/examples/pipeline"
)

// docURI turns a command line argument into a document URI. Arguments with a
// scheme are used as they are; anything else is a local path.
func docURI(arg string) (string, error) {
	if strings.Contains(arg, "://") {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	return salad.FileURI(filepath.ToSlash(abs), false), nil
}

func newLoadCmd(g *globals) *cobra.Command {
	var (
		relativeURIs bool
		linkCheck    bool
		cacheSize    int
	)
	cmd := &cobra.Command{
		Use:   "load DOCUMENT",
		Short: "Load and validate a pipeline document and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := docURI(args[0])
			if err != nil {
				return err
			}
			fetcher, err := salad.NewCachingFetcher(salad.NewDefaultFetcher(), cacheSize, g.collectors)
			if err != nil {
				return fmt.Errorf("cache size %d: %w", cacheSize, err)
			}
			opts := pipeline.NewLoadingOptions(
				salad.WithFetcher(fetcher),
				salad.WithLogger(g.logger),
				salad.WithMetrics(g.collectors),
				salad.WithLinkCheck(linkCheck),
			)
			res, docOpts, err := salad.LoadDocumentWithMetadata(cmd.Context(), pipeline.RootLoader, salad.String(uri), "", opts)
			if err != nil {
				return err
			}
			g.logger.Info().
				Str("uri", uri).
				Strs("documents", opts.Index().URLs()).
				Strs("imports", opts.Imports()).
				Strs("includes", opts.Includes()).
				Msg("document loaded")

			saved, err := salad.SaveWithMetadata(res, docOpts, true, uri, relativeURIs)
			if err != nil {
				return err
			}
			return g.write(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().BoolVar(&relativeURIs, "relative-uris", false, "Shorten identifiers relative to the document")
	cmd.Flags().BoolVar(&linkCheck, "link-check", false, "Fail on references to documents that do not exist")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 128, "Number of fetched documents kept in memory")
	return cmd
}

func newParseCmd(g *globals) *cobra.Command {
	var (
		onDuplicate string
		maxDepth    int
		maxBytes    int64
	)
	cmd := &cobra.Command{
		Use:   "parse DOCUMENT",
		Short: "Parse a YAML or JSON document without applying any schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := salad.ParseOpt{MaxDepth: maxDepth, MaxBytes: maxBytes}
			switch onDuplicate {
			case "ignore":
				opt.OnDuplicateKey = salad.Ignore
			case "warn":
				opt.OnDuplicateKey = salad.Warn
			case "error":
				opt.OnDuplicateKey = salad.Error
			default:
				return fmt.Errorf("unknown duplicate key policy %q", onDuplicate)
			}
			uri, err := docURI(args[0])
			if err != nil {
				return err
			}
			text, err := salad.NewDefaultFetcher().FetchText(cmd.Context(), uri)
			if err != nil {
				return err
			}
			g.logger.Debug().Str("uri", uri).Int("bytes", len(text)).Msg("fetched")
			doc, err := salad.ParseDocument(text, opt)
			if err != nil {
				return err
			}
			return g.write(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "error", "Duplicate JSON key policy: ignore, warn or error")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum nesting depth of JSON input (0 = unlimited)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "Maximum size of JSON input in bytes (0 = unlimited)")
	return cmd
}

func newExpandCmd(g *globals) *cobra.Command {
	var (
		base       string
		scopedID   bool
		vocabTerm  bool
		scopedRef  int
		namespaces map[string]string
	)
	cmd := &cobra.Command{
		Use:   "expand TERM",
		Short: "Expand an identifier against a base URI and the pipeline vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.NewLoadingOptions(salad.WithNamespaces(namespaces), salad.WithLogger(g.logger))
			var ref *int
			if cmd.Flags().Changed("scoped-ref") {
				ref = salad.Ref(scopedRef)
			}
			out, err := opts.ExpandURL(args[0], base, scopedID, vocabTerm, ref)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "Base URI")
	cmd.Flags().BoolVar(&scopedID, "scoped-id", false, "Treat the term as an identifier declared under the base")
	cmd.Flags().BoolVar(&vocabTerm, "vocab-term", false, "Allow vocabulary terms")
	cmd.Flags().IntVar(&scopedRef, "scoped-ref", 0, "Resolve the term this many fragment segments above the base")
	cmd.Flags().StringToStringVar(&namespaces, "namespace", nil, "Namespace prefix, as prefix=uri (repeatable)")
	return cmd
}

func newContractCmd(_ *globals) *cobra.Command {
	var (
		base     string
		scopedID bool
		refScope int
	)
	cmd := &cobra.Command{
		Use:   "contract URI",
		Short: "Shorten a URI relative to a base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := salad.ContractURI(args[0], base, scopedID, true, refScope)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "Base URL")
	cmd.Flags().BoolVar(&scopedID, "scoped-id", false, "The URI is an identifier declared under the base")
	cmd.Flags().IntVar(&refScope, "ref-scope", 0, "Fragment segments of the base to drop before contracting")
	return cmd
}
