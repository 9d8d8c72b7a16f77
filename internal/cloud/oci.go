package cloud

import (
	"context"
	"os"
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"github.com/pkg/errors"

	"github.com/ocihunt/ocihunt/internal/config"
)

// OCIProvider implements Provider on top of the OCI SDK compute and
// identity clients.
type OCIProvider struct {
	compute  core.ComputeClient
	identity identity.IdentityClient
	userOCID string
}

var _ Provider = (*OCIProvider)(nil)

// NewOCIProvider reads the private key named by the configuration and
// builds the compute and identity clients. Any failure here is fatal
// for the run: an unreadable or malformed key cannot be retried away.
func NewOCIProvider(cfg *config.Config) (*OCIProvider, error) {
	key, err := os.ReadFile(cfg.KeyFilePath())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read private key %s", cfg.KeyFilePath())
	}

	provider := common.NewRawConfigurationProvider(
		cfg.TenancyOCID,
		cfg.UserOCID,
		cfg.Region,
		cfg.Fingerprint,
		string(key),
		nil,
	)

	computeClient, err := core.NewComputeClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create OCI compute client")
	}
	identityClient, err := identity.NewIdentityClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create OCI identity client")
	}

	return &OCIProvider{
		compute:  computeClient,
		identity: identityClient,
		userOCID: cfg.UserOCID,
	}, nil
}

// CurrentUser fetches the user the credentials belong to.
func (p *OCIProvider) CurrentUser(ctx context.Context) (User, error) {
	resp, err := p.identity.GetUser(ctx, identity.GetUserRequest{
		UserId: common.String(p.userOCID),
	})
	if err != nil {
		return User{}, errors.Wrap(err, "get user failed")
	}
	u := User{Name: deref(resp.User.Name)}
	if resp.User.Email != nil {
		u.Email = *resp.User.Email
	}
	return u, nil
}

// ListAvailabilityDomains returns the zone names in the region.
func (p *OCIProvider) ListAvailabilityDomains(ctx context.Context, compartmentID string) ([]string, error) {
	resp, err := p.identity.ListAvailabilityDomains(ctx, identity.ListAvailabilityDomainsRequest{
		CompartmentId: common.String(compartmentID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list availability domains failed")
	}
	names := make([]string, 0, len(resp.Items))
	for _, ad := range resp.Items {
		names = append(names, deref(ad.Name))
	}
	return names, nil
}

// ListFaultDomains returns the fault domain names within one zone.
func (p *OCIProvider) ListFaultDomains(ctx context.Context, compartmentID, availabilityDomain string) ([]string, error) {
	resp, err := p.identity.ListFaultDomains(ctx, identity.ListFaultDomainsRequest{
		CompartmentId:      common.String(compartmentID),
		AvailabilityDomain: common.String(availabilityDomain),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list fault domains failed for %s", availabilityDomain)
	}
	names := make([]string, 0, len(resp.Items))
	for _, fd := range resp.Items {
		names = append(names, deref(fd.Name))
	}
	return names, nil
}

// ListInstances returns instances matching the display name in any
// lifecycle state; filtering out terminated ones is the caller's call.
func (p *OCIProvider) ListInstances(ctx context.Context, compartmentID, displayName string) ([]Instance, error) {
	resp, err := p.compute.ListInstances(ctx, core.ListInstancesRequest{
		CompartmentId: common.String(compartmentID),
		DisplayName:   common.String(displayName),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list instances failed")
	}
	instances := make([]Instance, 0, len(resp.Items))
	for _, item := range resp.Items {
		instances = append(instances, Instance{
			ID:                 deref(item.Id),
			DisplayName:        deref(item.DisplayName),
			Shape:              deref(item.Shape),
			LifecycleState:     string(item.LifecycleState),
			AvailabilityDomain: deref(item.AvailabilityDomain),
			FaultDomain:        deref(item.FaultDomain),
		})
	}
	return instances, nil
}

// LaunchInstance submits one launch call built from the spec. Shape
// sizing is attached only for flexible shapes; the compute API rejects
// shape configs on fixed shapes.
func (p *OCIProvider) LaunchInstance(ctx context.Context, spec LaunchSpec) (Instance, error) {
	details := core.LaunchInstanceDetails{
		AvailabilityDomain: common.String(spec.AvailabilityDomain),
		CompartmentId:      common.String(spec.CompartmentID),
		DisplayName:        common.String(spec.DisplayName),
		Shape:              common.String(spec.Shape),
		SourceDetails: core.InstanceSourceViaImageDetails{
			ImageId:             common.String(spec.ImageID),
			BootVolumeSizeInGBs: common.Int64(spec.BootVolumeGBs),
		},
		CreateVnicDetails: &core.CreateVnicDetails{
			SubnetId:       common.String(spec.SubnetID),
			AssignPublicIp: common.Bool(true),
		},
		Metadata: map[string]string{
			"ssh_authorized_keys": spec.SSHPublicKey,
		},
	}
	if strings.Contains(spec.Shape, "Flex") {
		details.ShapeConfig = &core.LaunchInstanceShapeConfigDetails{
			Ocpus:       common.Float32(spec.OCPUs),
			MemoryInGBs: common.Float32(spec.MemoryGBs),
		}
	}
	if spec.FaultDomain != "" {
		details.FaultDomain = common.String(spec.FaultDomain)
	}

	resp, err := p.compute.LaunchInstance(ctx, core.LaunchInstanceRequest{
		LaunchInstanceDetails: details,
	})
	if err != nil {
		return Instance{}, err
	}
	return Instance{
		ID:                 deref(resp.Instance.Id),
		DisplayName:        deref(resp.Instance.DisplayName),
		Shape:              deref(resp.Instance.Shape),
		LifecycleState:     string(resp.Instance.LifecycleState),
		AvailabilityDomain: deref(resp.Instance.AvailabilityDomain),
		FaultDomain:        deref(resp.Instance.FaultDomain),
	}, nil
}

// ListImages returns available images, newest first.
func (p *OCIProvider) ListImages(ctx context.Context, compartmentID, operatingSystem string) ([]Image, error) {
	req := core.ListImagesRequest{
		CompartmentId:  common.String(compartmentID),
		SortBy:         core.ListImagesSortByTimecreated,
		SortOrder:      core.ListImagesSortOrderDesc,
		LifecycleState: core.ImageLifecycleStateAvailable,
	}
	if operatingSystem != "" {
		req.OperatingSystem = common.String(operatingSystem)
	}
	resp, err := p.compute.ListImages(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "list images failed")
	}
	images := make([]Image, 0, len(resp.Items))
	for _, item := range resp.Items {
		img := Image{
			ID:              deref(item.Id),
			DisplayName:     deref(item.DisplayName),
			OperatingSystem: deref(item.OperatingSystem),
		}
		if item.SizeInMBs != nil {
			img.SizeMB = *item.SizeInMBs
		}
		images = append(images, img)
	}
	return images, nil
}

// ListShapes returns the shapes available to the compartment.
func (p *OCIProvider) ListShapes(ctx context.Context, compartmentID string) ([]Shape, error) {
	resp, err := p.compute.ListShapes(ctx, core.ListShapesRequest{
		CompartmentId: common.String(compartmentID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list shapes failed")
	}
	shapes := make([]Shape, 0, len(resp.Items))
	for _, item := range resp.Items {
		s := Shape{Name: deref(item.Shape)}
		if item.Ocpus != nil {
			s.OCPUs = *item.Ocpus
		}
		if item.MemoryInGBs != nil {
			s.MemoryGBs = *item.MemoryInGBs
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
