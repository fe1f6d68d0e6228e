package instances

import (
	"context"

	"golang.org/x/exp/slices"

	"github.com/cloud-gov/riak-cs-broker/awss3"
)

// boundPermissions are granted to every binding's user on the instance bucket.
var boundPermissions = []awss3.Permission{awss3.PermissionRead, awss3.PermissionWrite}

// updateACL replaces the ACL of bucketName with mutate applied to its current
// value. There is no conditional write: a concurrent update of the same
// bucket between the read and the write is lost.
func updateACL(ctx context.Context, bucket awss3.Bucket, bucketName string, mutate func(awss3.ACL) awss3.ACL) error {
	acl, err := bucket.GetACL(ctx, bucketName)
	if err != nil {
		return err
	}
	return bucket.PutACL(ctx, bucketName, mutate(acl))
}

func grantTo(userID string) func(awss3.ACL) awss3.ACL {
	return func(acl awss3.ACL) awss3.ACL {
		grants := slices.Clone(acl.Grants)
		for _, permission := range boundPermissions {
			grants = append(grants, awss3.Grant{
				Permission: permission,
				Grantee:    awss3.Grantee{ID: userID},
			})
		}
		acl.Grants = grants
		return acl
	}
}

func revokeFrom(userIDs ...string) func(awss3.ACL) awss3.ACL {
	return func(acl awss3.ACL) awss3.ACL {
		acl.Grants = slices.DeleteFunc(slices.Clone(acl.Grants), func(grant awss3.Grant) bool {
			return grant.Grantee.ID != "" && slices.Contains(userIDs, grant.Grantee.ID)
		})
		return acl
	}
}

// HasGrant reports whether acl grants permission to userID.
func HasGrant(acl awss3.ACL, userID string, permission awss3.Permission) bool {
	return slices.ContainsFunc(acl.Grants, func(grant awss3.Grant) bool {
		return grant.Grantee.ID == userID && grant.Permission == permission
	})
}

// Revoke removes every grant to any of userIDs from bucketName's ACL.
func Revoke(ctx context.Context, bucket awss3.Bucket, bucketName string, userIDs []string) error {
	return classify(updateACL(ctx, bucket, bucketName, revokeFrom(userIDs...)))
}
