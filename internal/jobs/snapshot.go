package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/swr"
)

type TenantLister interface {
	ListTenantsWithActive(ctx context.Context) ([]uint64, error)
}

type SnapshotBuilder interface {
	BuildTenant(ctx context.Context, tenantID uint64, offsets []int) (int, error)
}

// SnapshotJob builds today's market snapshots for every tenant with active
// competitors.  A failing tenant does not stop the others.
type SnapshotJob struct {
	tenants TenantLister
	builder SnapshotBuilder
	offsets []int
	log     logrus.FieldLogger
}

func NewSnapshotJob(tenants TenantLister, builder SnapshotBuilder, log logrus.FieldLogger) *SnapshotJob {
	return &SnapshotJob{tenants: tenants, builder: builder, offsets: swr.SupportedOffsets, log: log.WithField("component", "snapshot-job")}
}

func (j *SnapshotJob) Name() string { return "snapshot" }

func (j *SnapshotJob) Run(ctx context.Context) error {
	tenants, err := j.tenants.ListTenantsWithActive(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	var errs []error
	total := 0
	for _, tenantID := range tenants {
		n, err := j.builder.BuildTenant(ctx, tenantID, j.offsets)
		total += n
		if err != nil {
			j.log.WithError(err).WithField("tenant_id", tenantID).Error("snapshot build failed")
			errs = append(errs, fmt.Errorf("tenant %d: %w", tenantID, err))
		}
	}
	j.log.WithFields(logrus.Fields{"tenants": len(tenants), "snapshots": total}).Info("snapshots built")
	return errors.Join(errs...)
}
