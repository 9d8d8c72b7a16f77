// Package config loads the hunter configuration from the project .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding .env key is unset.
const (
	DefaultDisplayName   = "my-always-free-instance"
	DefaultShape         = "VM.Standard.A1.Flex"
	DefaultOCPUs         = 4
	DefaultMemoryGBs     = 24
	DefaultBootVolumeGBs = 50
)

// EnvFileName is the settings file expected at the project root.
const EnvFileName = ".env"

// ErrConfigMissing indicates the .env file itself is absent.
var ErrConfigMissing = fmt.Errorf("%s not found: copy .env.example to .env and fill in your OCI details", EnvFileName)

// ErrSSHKeyMissing indicates the configured SSH public key file is absent.
var ErrSSHKeyMissing = fmt.Errorf("SSH public key file not found")

// Config holds every setting recognized by the hunter and the
// diagnostics CLI. It is immutable once loaded.
type Config struct {
	// Credentials
	UserOCID    string
	TenancyOCID string
	Region      string
	Fingerprint string
	KeyFile     string

	// Target resource
	CompartmentOCID    string
	DisplayName        string
	AvailabilityDomain string
	Shape              string
	OCPUs              float32
	MemoryGBs          float32
	SubnetOCID         string
	ImageOCID          string
	BootVolumeGBs      int64

	// SSH
	SSHKeyFile string

	// Optional notifications
	TelegramToken  string
	TelegramChatID string

	// Root is the directory relative paths resolve against.
	Root string
}

// Load reads the .env file under root and builds a Config. Values only
// get presence-level handling here; deeper validation is the
// diagnostics CLI's job.
func Load(root string) (*Config, error) {
	envPath := filepath.Join(root, EnvFileName)
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil, ErrConfigMissing
	}
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", envPath, err)
	}

	cfg := &Config{
		UserOCID:           os.Getenv("OCI_USER_OCID"),
		TenancyOCID:        os.Getenv("OCI_TENANCY_OCID"),
		Region:             os.Getenv("OCI_REGION"),
		Fingerprint:        os.Getenv("OCI_FINGERPRINT"),
		KeyFile:            os.Getenv("OCI_KEY_FILE"),
		CompartmentOCID:    os.Getenv("OCI_COMPARTMENT_OCID"),
		DisplayName:        GetEnv("INSTANCE_DISPLAY_NAME", DefaultDisplayName),
		AvailabilityDomain: os.Getenv("AVAILABILITY_DOMAIN"),
		Shape:              GetEnv("INSTANCE_SHAPE", DefaultShape),
		OCPUs:              getEnvFloat("INSTANCE_OCPUS", DefaultOCPUs),
		MemoryGBs:          getEnvFloat("INSTANCE_MEMORY_IN_GBS", DefaultMemoryGBs),
		SubnetOCID:         os.Getenv("SUBNET_OCID"),
		ImageOCID:          os.Getenv("IMAGE_OCID"),
		BootVolumeGBs:      getEnvInt("BOOT_VOLUME_SIZE_IN_GBS", DefaultBootVolumeGBs),
		SSHKeyFile:         os.Getenv("SSH_PUBLIC_KEY_FILE"),
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TELEGRAM_CHAT_ID"),
		Root:               root,
	}

	return cfg, nil
}

// KeyFilePath returns the private key path resolved against the
// project root.
func (c *Config) KeyFilePath() string {
	return c.resolve(c.KeyFile)
}

// SSHKeyFilePath returns the SSH public key path resolved against the
// project root.
func (c *Config) SSHKeyFilePath() string {
	return c.resolve(c.SSHKeyFile)
}

// ReadSSHPublicKey loads and trims the configured SSH public key.
func (c *Config) ReadSSHPublicKey() (string, error) {
	path := c.SSHKeyFilePath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrSSHKeyMissing, path)
	}
	if err != nil {
		return "", fmt.Errorf("error reading SSH public key %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

func getEnvInt(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
