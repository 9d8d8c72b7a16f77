// Package cloud abstracts the compute provider behind a small
// capability interface so the hunter and the diagnostics CLI never
// depend on SDK types directly.
package cloud

import "context"

// Provider is the set of provider operations the hunter and the
// diagnostics CLI rely on. The production implementation is backed by
// the OCI SDK; tests use MockProvider.
type Provider interface {
	// CurrentUser fetches the authenticated user, proving the
	// credentials work.
	CurrentUser(ctx context.Context) (User, error)

	// ListAvailabilityDomains returns the zone names visible in the
	// region.
	ListAvailabilityDomains(ctx context.Context, compartmentID string) ([]string, error)

	// ListFaultDomains returns the fault domain names within one
	// availability domain.
	ListFaultDomains(ctx context.Context, compartmentID, availabilityDomain string) ([]string, error)

	// ListInstances returns the instances in the compartment matching
	// the display name, in any lifecycle state.
	ListInstances(ctx context.Context, compartmentID, displayName string) ([]Instance, error)

	// LaunchInstance submits one create call and returns the created
	// instance.
	LaunchInstance(ctx context.Context, spec LaunchSpec) (Instance, error)

	// ListImages returns available images, newest first, optionally
	// filtered by operating system.
	ListImages(ctx context.Context, compartmentID, operatingSystem string) ([]Image, error)

	// ListShapes returns the compute shapes available to the
	// compartment.
	ListShapes(ctx context.Context, compartmentID string) ([]Shape, error)
}

// LaunchSpec carries everything one launch attempt needs. FaultDomain
// may be empty, meaning the provider picks one.
type LaunchSpec struct {
	AvailabilityDomain string
	FaultDomain        string
	CompartmentID      string
	DisplayName        string
	Shape              string
	OCPUs              float32
	MemoryGBs          float32
	SubnetID           string
	ImageID            string
	BootVolumeGBs      int64
	SSHPublicKey       string
}

// Instance is the provider-neutral view of a compute instance.
type Instance struct {
	ID                 string
	DisplayName        string
	Shape              string
	LifecycleState     string
	AvailabilityDomain string
	FaultDomain        string
}

// Image is the provider-neutral view of a boot image.
type Image struct {
	ID              string
	DisplayName     string
	OperatingSystem string
	SizeMB          int64
}

// Shape is the provider-neutral view of a compute shape.
type Shape struct {
	Name      string
	OCPUs     float32
	MemoryGBs float32
}

// User identifies the authenticated principal.
type User struct {
	Name  string
	Email string
}
