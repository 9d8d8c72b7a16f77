package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ocihunt/ocihunt/internal/cloud"
	"github.com/ocihunt/ocihunt/internal/config"
	"github.com/ocihunt/ocihunt/internal/diag"
)

var errChecksFailed = errors.New("one or more checks failed")

var (
	testAuth   bool
	listADs    bool
	listImages bool
	listShapes bool
	validate   bool

	shapeFilter string
	osFilter    string
)

var rootCmd = &cobra.Command{
	Use:   "diag",
	Short: "Diagnostic helpers for the OCI instance hunter",
	Long: `diag gathers information from OCI and validates the hunter
configuration. All operations are read-only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&testAuth, "test-auth", false, "Test OCI authentication")
	rootCmd.Flags().BoolVar(&listADs, "list-ads", false, "List availability domains")
	rootCmd.Flags().BoolVar(&listImages, "list-images", false, "List available images")
	rootCmd.Flags().BoolVar(&listShapes, "list-shapes", false, "List available compute shapes")
	rootCmd.Flags().BoolVar(&validate, "validate", false, "Validate configuration")
	rootCmd.Flags().StringVar(&shapeFilter, "shape", "", "Filter images by shape (e.g. VM.Standard.A1.Flex)")
	rootCmd.Flags().StringVar(&osFilter, "os", "", "Filter images by OS (e.g. \"Canonical Ubuntu\")")
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	// With no operation requested, show help and fall back to
	// validation.
	if !testAuth && !listADs && !listImages && !listShapes && !validate {
		_ = cmd.Help()
		fmt.Fprintln(out, "\nRunning validation by default...")
		validate = true
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	// The provider is built lazily so validation still runs when the
	// credentials cannot even construct a client.
	var provider cloud.Provider
	getProvider := func() (cloud.Provider, error) {
		if provider == nil {
			p, err := cloud.NewOCIProvider(cfg)
			if err != nil {
				return nil, err
			}
			provider = p
		}
		return provider, nil
	}

	runAuth := func() bool {
		p, err := getProvider()
		if err != nil {
			fmt.Fprintf(out, "Authentication failed: %v\n", err)
			return false
		}
		return diag.TestAuth(ctx, p, cfg, out)
	}

	ok := true

	if testAuth {
		ok = runAuth() && ok
	}

	if listADs {
		if p, err := getProvider(); err != nil {
			fmt.Fprintf(out, "Failed to list availability domains: %v\n", err)
		} else if err := diag.ListAvailabilityDomains(ctx, p, cfg, out); err != nil {
			fmt.Fprintln(out, err)
		}
	}

	if listImages {
		if p, err := getProvider(); err != nil {
			fmt.Fprintf(out, "Failed to list images: %v\n", err)
		} else if err := diag.ListImages(ctx, p, cfg, out, shapeFilter, osFilter); err != nil {
			fmt.Fprintln(out, err)
		}
	}

	if listShapes {
		if p, err := getProvider(); err != nil {
			fmt.Fprintf(out, "Failed to list shapes: %v\n", err)
		} else if err := diag.ListShapes(ctx, p, cfg, out); err != nil {
			fmt.Fprintln(out, err)
		}
	}

	if validate {
		problems, warnings := diag.Validate(cfg)
		pass := diag.PrintValidation(out, problems, warnings)
		if pass {
			pass = runAuth()
		}
		ok = pass && ok
	}

	if !ok {
		return errChecksFailed
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
