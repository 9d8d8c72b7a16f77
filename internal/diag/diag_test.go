package diag

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocihunt/ocihunt/internal/cloud"
	"github.com/ocihunt/ocihunt/internal/config"
)

func TestTestAuth(t *testing.T) {
	cfg := &config.Config{Region: "eu-frankfurt-1"}

	t.Run("success", func(t *testing.T) {
		mock := &cloud.MockProvider{User: cloud.User{Name: "alex", Email: "alex@example.com"}}
		var buf bytes.Buffer
		ok := TestAuth(context.Background(), mock, cfg, &buf)
		assert.True(t, ok)
		assert.Contains(t, buf.String(), "Authentication successful")
		assert.Contains(t, buf.String(), "alex")
		assert.Contains(t, buf.String(), "eu-frankfurt-1")
	})

	t.Run("no email", func(t *testing.T) {
		mock := &cloud.MockProvider{User: cloud.User{Name: "alex"}}
		var buf bytes.Buffer
		require.True(t, TestAuth(context.Background(), mock, cfg, &buf))
		assert.Contains(t, buf.String(), "N/A")
	})

	t.Run("failure", func(t *testing.T) {
		mock := &cloud.MockProvider{UserErr: errors.New("NotAuthenticated")}
		var buf bytes.Buffer
		ok := TestAuth(context.Background(), mock, cfg, &buf)
		assert.False(t, ok)
		assert.Contains(t, buf.String(), "Authentication failed")
	})
}

func TestListAvailabilityDomains(t *testing.T) {
	cfg := &config.Config{CompartmentOCID: "ocid1.compartment.oc1..c"}
	mock := &cloud.MockProvider{AvailabilityDomains: []string{"AD-1", "AD-2"}}

	var buf bytes.Buffer
	require.NoError(t, ListAvailabilityDomains(context.Background(), mock, cfg, &buf))
	assert.Contains(t, buf.String(), "1. AD-1")
	assert.Contains(t, buf.String(), "2. AD-2")
}

func TestListImagesShapeHeuristic(t *testing.T) {
	cfg := &config.Config{Shape: "VM.Standard.A1.Flex"}
	mock := &cloud.MockProvider{
		Images: []cloud.Image{
			{ID: "ocid1.image.oc1..arm", DisplayName: "Canonical-Ubuntu-24.04-aarch64-2025.01.01-0", OperatingSystem: "Canonical Ubuntu", SizeMB: 3000},
			{ID: "ocid1.image.oc1..x86", DisplayName: "Canonical-Ubuntu-24.04-2025.01.01-0", OperatingSystem: "Canonical Ubuntu", SizeMB: 3200},
			{ID: "ocid1.image.oc1..ol", DisplayName: "Oracle-Linux-9.4-aarch64-2025.01.01-0", OperatingSystem: "Oracle Linux", SizeMB: 2800},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ListImages(context.Background(), mock, cfg, &buf, "", ""))
	out := buf.String()

	// A1 keeps only aarch64 images, grouped by OS.
	assert.Contains(t, out, "ocid1.image.oc1..arm")
	assert.Contains(t, out, "ocid1.image.oc1..ol")
	assert.NotContains(t, out, "ocid1.image.oc1..x86")
	assert.Contains(t, out, "Canonical Ubuntu:")
	assert.Contains(t, out, "Oracle Linux:")
}

func TestListImagesE2KeepsX86(t *testing.T) {
	cfg := &config.Config{Shape: "VM.Standard.A1.Flex"}
	mock := &cloud.MockProvider{
		Images: []cloud.Image{
			{ID: "ocid1.image.oc1..arm", DisplayName: "img-aarch64", OperatingSystem: "Oracle Linux"},
			{ID: "ocid1.image.oc1..x86", DisplayName: "img-x86", OperatingSystem: "Oracle Linux"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ListImages(context.Background(), mock, cfg, &buf, "VM.Standard.E2.1.Micro", ""))
	assert.Contains(t, buf.String(), "ocid1.image.oc1..x86")
	assert.NotContains(t, buf.String(), "ocid1.image.oc1..arm")
}

func TestListImagesPerOSCap(t *testing.T) {
	cfg := &config.Config{Shape: "VM.Standard.A1.Flex"}
	var images []cloud.Image
	for i := 0; i < 10; i++ {
		images = append(images, cloud.Image{
			ID:              string(rune('a'+i)) + "-ocid",
			DisplayName:     "u-aarch64",
			OperatingSystem: "Canonical Ubuntu",
		})
	}
	mock := &cloud.MockProvider{Images: images}

	var buf bytes.Buffer
	require.NoError(t, ListImages(context.Background(), mock, cfg, &buf, "", ""))
	assert.Equal(t, maxImagesPerOS, strings.Count(buf.String(), "-ocid"))
}

func TestListImagesNoneCompatible(t *testing.T) {
	cfg := &config.Config{Shape: "VM.Standard.A1.Flex"}
	mock := &cloud.MockProvider{
		Images: []cloud.Image{{ID: "x", DisplayName: "img-x86", OperatingSystem: "Oracle Linux"}},
	}

	var buf bytes.Buffer
	require.NoError(t, ListImages(context.Background(), mock, cfg, &buf, "", ""))
	assert.Contains(t, buf.String(), "No compatible images found")
}

func TestListShapesFreeTierFilter(t *testing.T) {
	cfg := &config.Config{}
	mock := &cloud.MockProvider{
		Shapes: []cloud.Shape{
			{Name: "VM.Standard.A1.Flex", OCPUs: 4, MemoryGBs: 24},
			{Name: "VM.Standard.E2.1.Micro", OCPUs: 1, MemoryGBs: 1},
			{Name: "VM.Standard3.Flex", OCPUs: 8, MemoryGBs: 64},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ListShapes(context.Background(), mock, cfg, &buf))
	out := buf.String()
	assert.Contains(t, out, "VM.Standard.A1.Flex")
	assert.Contains(t, out, "VM.Standard.E2.1.Micro")
	assert.NotContains(t, out, "VM.Standard3.Flex")
}

func setValidateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INSTANCE_DISPLAY_NAME", "AVAILABILITY_DOMAIN", "INSTANCE_SHAPE",
		"SUBNET_OCID", "IMAGE_OCID",
	} {
		t.Setenv(key, "value")
	}
}

func TestValidatePasses(t *testing.T) {
	setValidateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.pem"), []byte("---"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.pub"), []byte("ssh-rsa AAAA"), 0o600))

	cfg := &config.Config{
		UserOCID:        "u",
		TenancyOCID:     "t",
		Region:          "r",
		Fingerprint:     "f",
		KeyFile:         "key.pem",
		CompartmentOCID: "c",
		SSHKeyFile:      "id.pub",
		Root:            dir,
	}

	problems, warnings := Validate(cfg)
	assert.Empty(t, problems)
	assert.Empty(t, warnings)
}

func TestValidateMissingFields(t *testing.T) {
	setValidateEnv(t)
	cfg := &config.Config{Root: t.TempDir()}

	problems, _ := Validate(cfg)
	assert.Contains(t, problems, "missing OCI_USER_OCID")
	assert.Contains(t, problems, "missing OCI_TENANCY_OCID")
	assert.Contains(t, problems, "missing OCI_REGION")
	assert.Contains(t, problems, "missing OCI_FINGERPRINT")
	assert.Contains(t, problems, "missing OCI_KEY_FILE")
	assert.Contains(t, problems, "missing OCI_COMPARTMENT_OCID")
}

func TestValidateMissingFiles(t *testing.T) {
	setValidateEnv(t)
	dir := t.TempDir()
	cfg := &config.Config{
		UserOCID:        "u",
		TenancyOCID:     "t",
		Region:          "r",
		Fingerprint:     "f",
		KeyFile:         "nope.pem",
		CompartmentOCID: "c",
		SSHKeyFile:      "nope.pub",
		Root:            dir,
	}

	problems, _ := Validate(cfg)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "private key file not found")
	assert.Contains(t, problems[1], "SSH public key file not found")
}

func TestValidateSSHKeyUnsetIsWarning(t *testing.T) {
	setValidateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.pem"), []byte("---"), 0o600))

	cfg := &config.Config{
		UserOCID:        "u",
		TenancyOCID:     "t",
		Region:          "r",
		Fingerprint:     "f",
		KeyFile:         "key.pem",
		CompartmentOCID: "c",
		Root:            dir,
	}

	problems, warnings := Validate(cfg)
	assert.Empty(t, problems)
	assert.Equal(t, []string{"SSH_PUBLIC_KEY_FILE not set"}, warnings)
}

func TestValidateMissingNamedSettings(t *testing.T) {
	for _, key := range []string{
		"INSTANCE_DISPLAY_NAME", "AVAILABILITY_DOMAIN", "INSTANCE_SHAPE",
		"SUBNET_OCID", "IMAGE_OCID",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.pem"), []byte("---"), 0o600))

	cfg := &config.Config{
		UserOCID:        "u",
		TenancyOCID:     "t",
		Region:          "r",
		Fingerprint:     "f",
		KeyFile:         "key.pem",
		CompartmentOCID: "c",
		Root:            dir,
	}

	problems, _ := Validate(cfg)
	assert.Contains(t, problems, "missing AVAILABILITY_DOMAIN in .env")
	assert.Contains(t, problems, "missing SUBNET_OCID in .env")
	assert.Contains(t, problems, "missing IMAGE_OCID in .env")
}

func TestPrintValidation(t *testing.T) {
	t.Run("pass", func(t *testing.T) {
		var buf bytes.Buffer
		assert.True(t, PrintValidation(&buf, nil, nil))
		assert.Contains(t, buf.String(), "Configuration looks good")
	})

	t.Run("warnings only", func(t *testing.T) {
		var buf bytes.Buffer
		assert.True(t, PrintValidation(&buf, nil, []string{"SSH_PUBLIC_KEY_FILE not set"}))
		assert.Contains(t, buf.String(), "No critical errors")
	})

	t.Run("problems", func(t *testing.T) {
		var buf bytes.Buffer
		assert.False(t, PrintValidation(&buf, []string{"missing OCI_REGION"}, nil))
		assert.Contains(t, buf.String(), "missing OCI_REGION")
		assert.Contains(t, buf.String(), "Fix the errors above")
	})
}
