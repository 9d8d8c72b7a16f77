// Package hunter drives launch attempts across every availability
// domain and fault domain until one succeeds or a non-transient error
// stops the run.
package hunter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocihunt/ocihunt/internal/cloud"
	"github.com/ocihunt/ocihunt/internal/config"
	"github.com/ocihunt/ocihunt/internal/notify"
)

// Options are the per-run flags.
type Options struct {
	// NoCycle restricts the search to the configured availability
	// domain instead of cycling through all of them.
	NoCycle bool
	// DryRun stops before any creation call once configuration and the
	// SSH key check out.
	DryRun bool
	// Force ignores an existing sentinel file.
	Force bool
}

// Result summarizes one run.
type Result struct {
	// Attempts is the number of launch calls issued.
	Attempts int
	// CapacityErrors counts attempts that failed on host capacity.
	CapacityErrors int
	// InstanceID is set when an instance was created or already
	// existed.
	InstanceID string
	// AlreadyExists is true when the run succeeded without creating
	// anything.
	AlreadyExists bool
	// DryRun is true when the run stopped before any creation call.
	DryRun bool
}

// Hunter owns one orchestration run. Exactly one attempt is in flight
// at a time and no placement is tried twice in a run.
type Hunter struct {
	cfg      *config.Config
	provider cloud.Provider
	sentinel *Sentinel
	notifier notify.Notifier
	log      *logrus.Logger

	// Delay between consecutive attempts. Tests shrink it.
	Delay time.Duration
}

// New builds a Hunter. notifier may be nil.
func New(cfg *config.Config, provider cloud.Provider, sentinel *Sentinel, notifier notify.Notifier, log *logrus.Logger) *Hunter {
	return &Hunter{
		cfg:      cfg,
		provider: provider,
		sentinel: sentinel,
		notifier: notifier,
		log:      log,
		Delay:    time.Second,
	}
}

// Run executes the creation loop. A nil error means the run ended with
// an instance (created or pre-existing) or a clean dry run.
func (h *Hunter) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	if h.sentinel.Exists() && !opts.Force {
		rec, err := h.sentinel.Read()
		if err != nil {
			return nil, err
		}
		h.log.Infof("Instance already created: %s", rec.InstanceID)
		if !rec.CreatedAt.IsZero() {
			h.log.Infof("Created at: %s", rec.CreatedAt.Format(time.RFC3339))
		}
		h.log.Infof("To create another instance, delete %s", h.sentinel.Path())
		res.AlreadyExists = true
		res.InstanceID = rec.InstanceID
		return res, nil
	}

	sshKey, err := h.cfg.ReadSSHPublicKey()
	if err != nil {
		return nil, err
	}
	h.log.Debug("SSH public key loaded")

	if existing := h.findExistingInstance(ctx); existing != nil {
		h.log.WithFields(logrus.Fields{
			"instance": existing.ID,
			"state":    existing.LifecycleState,
			"ad":       existing.AvailabilityDomain,
		}).Info("Instance already exists")
		if !h.sentinel.Exists() {
			if err := h.sentinel.Write(existing.ID); err != nil {
				h.log.Warnf("Could not write sentinel file: %v", err)
			}
		}
		res.AlreadyExists = true
		res.InstanceID = existing.ID
		return res, nil
	}

	if opts.DryRun {
		h.log.Info("Dry run successful - configuration looks good")
		res.DryRun = true
		return res, nil
	}

	domains, err := h.searchSpace(ctx, opts)
	if err != nil {
		return res, err
	}

	h.log.Info("Starting instance creation attempts")

	for _, ad := range domains {
		faultDomains := h.faultDomains(ctx, ad)

		// Always try the zone unpinned first, then each fault domain.
		placements := append([]string{""}, faultDomains...)
		for _, fd := range placements {
			if res.Attempts > 0 {
				select {
				case <-ctx.Done():
					return res, ctx.Err()
				case <-time.After(h.Delay):
				}
			}
			res.Attempts++

			instance, err := h.attempt(ctx, sshKey, ad, fd)
			if err == nil {
				res.InstanceID = instance.ID
				h.success(res, instance)
				return res, nil
			}

			switch Classify(err) {
			case KindCapacity:
				res.CapacityErrors++
				h.log.WithFields(logrus.Fields{"ad": ad, "fd": fd}).Warn("Capacity error")
				h.log.Debugf("Error details: %s", errorMessage(err))
			case KindQuotaOrLimit:
				h.log.Errorf("Quota/limit error: %s", errorMessage(err))
				return res, fmt.Errorf("quota or service limit reached: %s", errorMessage(err))
			default:
				if code := errorCode(err); code != "" {
					h.log.Errorf("Service error [%s]: %s", code, errorMessage(err))
				} else {
					h.log.Errorf("Unexpected error: %v", err)
				}
				return res, fmt.Errorf("instance creation failed in %s: %w", ad, err)
			}
		}
	}

	h.log.Warnf("All creation attempts failed: %d attempts, %d capacity errors", res.Attempts, res.CapacityErrors)
	if res.Attempts > 0 && res.CapacityErrors == res.Attempts {
		h.log.Info("All failures were due to capacity; this is normal for Always Free shapes")
		h.log.Info("Schedule this tool to run every few minutes, or try another region")
	}
	return res, fmt.Errorf("no capacity found after %d attempts", res.Attempts)
}

// attempt issues a single launch call for one placement.
func (h *Hunter) attempt(ctx context.Context, sshKey, availabilityDomain, faultDomain string) (cloud.Instance, error) {
	fields := logrus.Fields{"ad": availabilityDomain}
	if faultDomain != "" {
		fields["fd"] = faultDomain
	}
	h.log.WithFields(fields).Info("Attempting to create instance")

	return h.provider.LaunchInstance(ctx, cloud.LaunchSpec{
		AvailabilityDomain: availabilityDomain,
		FaultDomain:        faultDomain,
		CompartmentID:      h.cfg.CompartmentOCID,
		DisplayName:        h.cfg.DisplayName,
		Shape:              h.cfg.Shape,
		OCPUs:              h.cfg.OCPUs,
		MemoryGBs:          h.cfg.MemoryGBs,
		SubnetID:           h.cfg.SubnetOCID,
		ImageID:            h.cfg.ImageOCID,
		BootVolumeGBs:      h.cfg.BootVolumeGBs,
		SSHPublicKey:       sshKey,
	})
}

// findExistingInstance looks for a non-terminated instance with the
// configured display name. Lookup failures are logged and treated as
// "not found" so the run can still try to create one.
func (h *Hunter) findExistingInstance(ctx context.Context) *cloud.Instance {
	h.log.Debugf("Checking for existing instance: %s", h.cfg.DisplayName)
	instances, err := h.provider.ListInstances(ctx, h.cfg.CompartmentOCID, h.cfg.DisplayName)
	if err != nil {
		h.log.Errorf("Error checking for existing instance: %v", err)
		return nil
	}
	for i := range instances {
		switch instances[i].LifecycleState {
		case "TERMINATED", "TERMINATING":
		default:
			return &instances[i]
		}
	}
	return nil
}

// searchSpace resolves the list of availability domains to try.
func (h *Hunter) searchSpace(ctx context.Context, opts Options) ([]string, error) {
	if opts.NoCycle || h.cfg.AvailabilityDomain != "" {
		if h.cfg.AvailabilityDomain == "" {
			return nil, fmt.Errorf("no availability domain configured; set AVAILABILITY_DOMAIN or drop --no-cycle")
		}
		h.log.Infof("Using configured availability domain: %s", h.cfg.AvailabilityDomain)
		return []string{h.cfg.AvailabilityDomain}, nil
	}

	domains, err := h.provider.ListAvailabilityDomains(ctx, h.cfg.CompartmentOCID)
	if err != nil {
		h.log.Errorf("Error fetching availability domains: %v", err)
		return nil, fmt.Errorf("could not retrieve availability domains: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("no availability domains found")
	}
	h.log.Infof("Found %d availability domains", len(domains))
	return domains, nil
}

// faultDomains enumerates the fault domains of one zone. Failure is
// non-fatal: the zone is still tried without a fault domain pin.
func (h *Hunter) faultDomains(ctx context.Context, availabilityDomain string) []string {
	fds, err := h.provider.ListFaultDomains(ctx, h.cfg.CompartmentOCID, availabilityDomain)
	if err != nil {
		h.log.Warnf("Could not fetch fault domains for %s: %v", availabilityDomain, err)
		return nil
	}
	h.log.Debugf("Found %d fault domains in %s", len(fds), availabilityDomain)
	return fds
}

func (h *Hunter) success(res *Result, instance cloud.Instance) {
	h.log.WithFields(logrus.Fields{
		"instance": instance.ID,
		"state":    instance.LifecycleState,
		"ad":       instance.AvailabilityDomain,
	}).Info("Instance created successfully")
	h.log.Infof("Total attempts: %d, capacity errors: %d", res.Attempts, res.CapacityErrors)

	if err := h.sentinel.Write(instance.ID); err != nil {
		h.log.Warnf("Could not write sentinel file: %v", err)
	}

	if h.notifier != nil {
		msg := fmt.Sprintf("Instance created: %s (%s, %s)", instance.ID, h.cfg.Shape, instance.AvailabilityDomain)
		if err := h.notifier.Notify(msg); err != nil {
			h.log.Warnf("Notification failed: %v", err)
		}
	}
}
