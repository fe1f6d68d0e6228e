// Package acls finds and removes grants on instance buckets that no binding
// accounts for, such as the leftovers of a bind that failed after its user
// was provisioned.
package acls

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/exp/slices"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/instances"
)

type UserLister interface {
	UserIDs(ctx context.Context) (map[string]string, error)
}

// Finding is a grant whose grantee is neither the bucket owner nor the user
// of a recorded binding.
type Finding struct {
	Bucket     string
	GranteeID  string
	Permission awss3.Permission
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s granted to %s", f.Bucket, f.Permission, f.GranteeID)
}

type Auditor struct {
	bucket   awss3.Bucket
	bindings UserLister
	logger   lager.Logger
}

func NewAuditor(bucket awss3.Bucket, bindings UserLister, logger lager.Logger) *Auditor {
	return &Auditor{
		bucket:   bucket,
		bindings: bindings,
		logger:   logger.Session("audit-acls"),
	}
}

func (a *Auditor) Audit(ctx context.Context) ([]Finding, error) {
	userIDs, err := a.bindings.UserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list bindings: %w", err)
	}
	mapped := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		mapped = append(mapped, userID)
	}

	bucketNames, err := a.bucket.List(ctx, instances.InstanceBucketPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list instance buckets: %w", err)
	}

	var findings []Finding
	for _, bucketName := range bucketNames {
		acl, err := a.bucket.GetACL(ctx, bucketName)
		if err != nil {
			return nil, fmt.Errorf("could not get acl for bucket %s: %w", bucketName, err)
		}

		for _, grant := range acl.Grants {
			id := grant.Grantee.ID
			if id == "" || id == acl.Owner.ID || slices.Contains(mapped, id) {
				continue
			}
			findings = append(findings, Finding{
				Bucket:     bucketName,
				GranteeID:  id,
				Permission: grant.Permission,
			})
		}
		a.logger.Debug("audited-bucket", lager.Data{"bucket": bucketName, "grants": len(acl.Grants)})
	}

	return findings, nil
}

// Fix revokes every grant to a grantee named in findings, bucket by bucket.
func (a *Auditor) Fix(ctx context.Context, findings []Finding) error {
	grantees := map[string][]string{}
	var bucketNames []string
	for _, finding := range findings {
		if _, ok := grantees[finding.Bucket]; !ok {
			bucketNames = append(bucketNames, finding.Bucket)
		}
		grantees[finding.Bucket] = append(grantees[finding.Bucket], finding.GranteeID)
	}

	for _, bucketName := range bucketNames {
		userIDs := grantees[bucketName]
		slices.Sort(userIDs)
		userIDs = slices.Compact(userIDs)

		a.logger.Info("revoke", lager.Data{"bucket": bucketName, "grantees": userIDs})
		if err := instances.Revoke(ctx, a.bucket, bucketName, userIDs); err != nil {
			return fmt.Errorf("error revoking grants on bucket %s: %w", bucketName, err)
		}
	}

	return nil
}
