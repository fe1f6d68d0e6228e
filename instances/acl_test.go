package instances_test

import (
	"context"

	"code.cloudfoundry.org/lager/v3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/fakes"
	"github.com/cloud-gov/riak-cs-broker/instances"
)

var _ = Describe("ACL", func() {
	var (
		ctx    context.Context
		bucket *fakes.FakeBucket
	)

	BeforeEach(func() {
		ctx = context.Background()
		bucket = fakes.NewFakeBucket()
		Expect(instances.NewRegistry(bucket, lager.NewLogger("test")).Create(ctx, "abc")).To(Succeed())
	})

	It("revokes several users and leaves group grants alone", func() {
		bucketName := instances.BucketName("abc")
		acl, err := bucket.GetACL(ctx, bucketName)
		Expect(err).NotTo(HaveOccurred())
		acl.Grants = append(acl.Grants,
			awss3.Grant{Permission: awss3.PermissionRead, Grantee: awss3.Grantee{ID: "u1"}},
			awss3.Grant{Permission: awss3.PermissionWrite, Grantee: awss3.Grantee{ID: "u2"}},
			awss3.Grant{Permission: awss3.PermissionRead, Grantee: awss3.Grantee{URI: "http://acs.amazonaws.com/groups/global/AllUsers"}},
		)
		Expect(bucket.PutACL(ctx, bucketName, acl)).To(Succeed())

		Expect(instances.Revoke(ctx, bucket, bucketName, []string{"u1", "u2"})).To(Succeed())

		acl, err = bucket.GetACL(ctx, bucketName)
		Expect(err).NotTo(HaveOccurred())
		Expect(instances.HasGrant(acl, "u1", awss3.PermissionRead)).To(BeFalse())
		Expect(instances.HasGrant(acl, "u2", awss3.PermissionWrite)).To(BeFalse())
		Expect(instances.HasGrant(acl, fakes.DefaultOwnerID, awss3.PermissionFullControl)).To(BeTrue())
		Expect(acl.Grants).To(HaveLen(2))
	})
})
