// Package diag implements the read-only diagnostic helpers: auth test,
// zone/image/shape listings and configuration validation. None of them
// retry or mutate anything.
package diag

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ocihunt/ocihunt/internal/cloud"
	"github.com/ocihunt/ocihunt/internal/config"
)

// Listing caps matching the original helper behavior.
const (
	maxImagesConsidered = 50
	maxImagesPerOS      = 5
)

// TestAuth fetches the current user to prove the credentials work.
func TestAuth(ctx context.Context, provider cloud.Provider, cfg *config.Config, w io.Writer) bool {
	fmt.Fprintln(w, "Testing OCI authentication...")
	user, err := provider.CurrentUser(ctx)
	if err != nil {
		fmt.Fprintf(w, "Authentication failed: %v\n", err)
		return false
	}
	fmt.Fprintln(w, "Authentication successful")
	fmt.Fprintf(w, "  User: %s\n", user.Name)
	email := user.Email
	if email == "" {
		email = "N/A"
	}
	fmt.Fprintf(w, "  Email: %s\n", email)
	fmt.Fprintf(w, "  Region: %s\n", cfg.Region)
	return true
}

// ListAvailabilityDomains prints the numbered zone list.
func ListAvailabilityDomains(ctx context.Context, provider cloud.Provider, cfg *config.Config, w io.Writer) error {
	domains, err := provider.ListAvailabilityDomains(ctx, cfg.CompartmentOCID)
	if err != nil {
		return fmt.Errorf("failed to list availability domains: %w", err)
	}
	if len(domains) == 0 {
		fmt.Fprintln(w, "No availability domains found.")
		return nil
	}
	fmt.Fprintf(w, "Found %d availability domain(s):\n", len(domains))
	for i, name := range domains {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}
	fmt.Fprintln(w, "Copy one of these to AVAILABILITY_DOMAIN in your .env file")
	return nil
}

// ListImages prints available images compatible with the shape,
// grouped by operating system. shape falls back to the configured one.
func ListImages(ctx context.Context, provider cloud.Provider, cfg *config.Config, w io.Writer, shape, osName string) error {
	if shape == "" {
		shape = cfg.Shape
	}
	fmt.Fprintf(w, "Shape: %s\n", shape)
	if osName != "" {
		fmt.Fprintf(w, "OS filter: %s\n", osName)
	}

	images, err := provider.ListImages(ctx, cfg.CompartmentOCID, osName)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	var compatible []cloud.Image
	for _, img := range images {
		if shapeCompatible(shape, img) {
			compatible = append(compatible, img)
		}
	}
	if len(compatible) == 0 {
		fmt.Fprintf(w, "No compatible images found for shape %s\n", shape)
		return nil
	}
	if len(compatible) > maxImagesConsidered {
		compatible = compatible[:maxImagesConsidered]
	}

	// Group by OS preserving first-seen order.
	groups := make(map[string][]cloud.Image)
	var order []string
	for _, img := range compatible {
		if _, seen := groups[img.OperatingSystem]; !seen {
			order = append(order, img.OperatingSystem)
		}
		groups[img.OperatingSystem] = append(groups[img.OperatingSystem], img)
	}

	for _, osKey := range order {
		fmt.Fprintf(w, "\n%s:\n", osKey)
		imgs := groups[osKey]
		if len(imgs) > maxImagesPerOS {
			imgs = imgs[:maxImagesPerOS]
		}
		for _, img := range imgs {
			fmt.Fprintf(w, "  %s\n", img.DisplayName)
			fmt.Fprintf(w, "    OCID: %s\n", img.ID)
			fmt.Fprintf(w, "    Size: %d MB\n", img.SizeMB)
		}
	}
	fmt.Fprintln(w, "\nCopy the OCID of your preferred image to IMAGE_OCID in .env")
	return nil
}

// shapeCompatible applies the shape-family heuristic: A1 shapes are
// aarch64, E2 shapes are not, anything else passes.
func shapeCompatible(shape string, img cloud.Image) bool {
	name := strings.ToLower(img.DisplayName)
	switch {
	case strings.Contains(shape, "A1"):
		return strings.Contains(name, "aarch64")
	case strings.Contains(shape, "E2"):
		return !strings.Contains(name, "aarch64")
	default:
		return true
	}
}

// ListShapes prints the Always Free eligible shapes.
func ListShapes(ctx context.Context, provider cloud.Provider, cfg *config.Config, w io.Writer) error {
	shapes, err := provider.ListShapes(ctx, cfg.CompartmentOCID)
	if err != nil {
		return fmt.Errorf("failed to list shapes: %w", err)
	}
	fmt.Fprintln(w, "Always Free eligible shapes:")
	for _, s := range shapes {
		if !strings.Contains(s.Name, "A1") && !strings.Contains(s.Name, "E2.1.Micro") {
			continue
		}
		fmt.Fprintf(w, "  %s\n", s.Name)
		if s.OCPUs > 0 {
			fmt.Fprintf(w, "    OCPUs: %g, Memory: %g GB\n", s.OCPUs, s.MemoryGBs)
		}
	}
	fmt.Fprintln(w, "Note: VM.Standard.A1.Flex allows up to 4 OCPUs and 24 GB total for free")
	return nil
}

// Validate checks that required settings and files are present. It
// returns the hard problems and the soft warnings; the configuration
// passes when problems is empty.
func Validate(cfg *config.Config) (problems, warnings []string) {
	required := []struct {
		key   string
		value string
	}{
		{"OCI_USER_OCID", cfg.UserOCID},
		{"OCI_TENANCY_OCID", cfg.TenancyOCID},
		{"OCI_REGION", cfg.Region},
		{"OCI_FINGERPRINT", cfg.Fingerprint},
		{"OCI_KEY_FILE", cfg.KeyFile},
		{"OCI_COMPARTMENT_OCID", cfg.CompartmentOCID},
	}
	for _, field := range required {
		if field.value == "" {
			problems = append(problems, fmt.Sprintf("missing %s", field.key))
		}
	}

	if cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.KeyFilePath()); err != nil {
			problems = append(problems, fmt.Sprintf("private key file not found: %s", cfg.KeyFilePath()))
		}
	}

	if cfg.SSHKeyFile == "" {
		warnings = append(warnings, "SSH_PUBLIC_KEY_FILE not set")
	} else if _, err := os.Stat(cfg.SSHKeyFilePath()); err != nil {
		problems = append(problems, fmt.Sprintf("SSH public key file not found: %s", cfg.SSHKeyFilePath()))
	}

	// These carry defaults at load time, but the .env should still name
	// them explicitly before a real run.
	for _, key := range []string{
		"INSTANCE_DISPLAY_NAME",
		"AVAILABILITY_DOMAIN",
		"INSTANCE_SHAPE",
		"SUBNET_OCID",
		"IMAGE_OCID",
	} {
		if os.Getenv(key) == "" {
			problems = append(problems, fmt.Sprintf("missing %s in .env", key))
		}
	}

	return problems, warnings
}

// PrintValidation formats a Validate outcome and returns whether it
// passed.
func PrintValidation(w io.Writer, problems, warnings []string) bool {
	if len(problems) > 0 {
		fmt.Fprintln(w, "Configuration errors:")
		for _, p := range problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warning := range warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	switch {
	case len(problems) == 0 && len(warnings) == 0:
		fmt.Fprintln(w, "Configuration looks good")
	case len(problems) == 0:
		fmt.Fprintln(w, "No critical errors (warnings only)")
	default:
		fmt.Fprintln(w, "Fix the errors above before proceeding")
	}
	return len(problems) == 0
}
