package cloud

import (
	"context"
	"fmt"
)

// MockProvider is a scriptable Provider for tests. Fields configure
// canned responses; LaunchResults are consumed in order, one per
// LaunchInstance call.
type MockProvider struct {
	// User returned by CurrentUser; UserErr takes precedence.
	User    User
	UserErr error

	// AvailabilityDomains returned by ListAvailabilityDomains.
	AvailabilityDomains []string
	ADsErr              error

	// FaultDomains maps availability domain name to its fault domains.
	FaultDomains map[string][]string
	FDsErr       error

	// Instances returned by ListInstances.
	Instances    []Instance
	InstancesErr error

	// LaunchResults is consumed front to back, one entry per launch.
	LaunchResults []LaunchResult

	// Images and Shapes back the diagnostics listings.
	Images []Image
	Shapes []Shape

	// Recorded calls.
	Launches         []LaunchSpec
	ListCalls        int
	LaunchCalls      int
	EnumerateADs     int
	EnumerateFDs     int
	CurrentUserCalls int
}

// LaunchResult is one scripted outcome of a LaunchInstance call.
type LaunchResult struct {
	Instance Instance
	Err      error
}

var _ Provider = (*MockProvider)(nil)

// CurrentUser returns the scripted user.
func (m *MockProvider) CurrentUser(_ context.Context) (User, error) {
	m.CurrentUserCalls++
	if m.UserErr != nil {
		return User{}, m.UserErr
	}
	return m.User, nil
}

// ListAvailabilityDomains returns the scripted zone names.
func (m *MockProvider) ListAvailabilityDomains(_ context.Context, _ string) ([]string, error) {
	m.EnumerateADs++
	if m.ADsErr != nil {
		return nil, m.ADsErr
	}
	return m.AvailabilityDomains, nil
}

// ListFaultDomains returns the scripted fault domains for the zone.
func (m *MockProvider) ListFaultDomains(_ context.Context, _ string, availabilityDomain string) ([]string, error) {
	m.EnumerateFDs++
	if m.FDsErr != nil {
		return nil, m.FDsErr
	}
	return m.FaultDomains[availabilityDomain], nil
}

// ListInstances returns the scripted instance list.
func (m *MockProvider) ListInstances(_ context.Context, _ string, _ string) ([]Instance, error) {
	m.ListCalls++
	if m.InstancesErr != nil {
		return nil, m.InstancesErr
	}
	return m.Instances, nil
}

// LaunchInstance records the spec and pops the next scripted result.
func (m *MockProvider) LaunchInstance(_ context.Context, spec LaunchSpec) (Instance, error) {
	m.LaunchCalls++
	m.Launches = append(m.Launches, spec)
	if len(m.LaunchResults) == 0 {
		return Instance{}, fmt.Errorf("mock: no launch result scripted for call %d", m.LaunchCalls)
	}
	result := m.LaunchResults[0]
	m.LaunchResults = m.LaunchResults[1:]
	return result.Instance, result.Err
}

// ListImages returns the scripted images.
func (m *MockProvider) ListImages(_ context.Context, _ string, operatingSystem string) ([]Image, error) {
	if operatingSystem == "" {
		return m.Images, nil
	}
	var filtered []Image
	for _, img := range m.Images {
		if img.OperatingSystem == operatingSystem {
			filtered = append(filtered, img)
		}
	}
	return filtered, nil
}

// ListShapes returns the scripted shapes.
func (m *MockProvider) ListShapes(_ context.Context, _ string) ([]Shape, error) {
	return m.Shapes, nil
}
