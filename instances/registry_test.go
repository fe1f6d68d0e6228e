package instances_test

import (
	"context"
	"errors"

	"code.cloudfoundry.org/lager/v3"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/fakes"
	"github.com/cloud-gov/riak-cs-broker/instances"
)

var _ = Describe("Registry", func() {
	var (
		ctx        context.Context
		bucket     *fakes.FakeBucket
		registry   *instances.Registry
		instanceID string
	)

	BeforeEach(func() {
		ctx = context.Background()
		bucket = fakes.NewFakeBucket()
		registry = instances.NewRegistry(bucket, lager.NewLogger("test"))
		instanceID = uuid.NewString()
	})

	It("names instance buckets after the instance", func() {
		Expect(instances.BucketName("abc")).To(Equal("service-instance-abc"))
	})

	Describe("Exists", func() {
		It("is false for an unknown instance", func() {
			Expect(registry.Exists(ctx, instanceID)).To(BeFalse())
		})

		It("is true once the instance is created", func() {
			Expect(registry.Create(ctx, instanceID)).To(Succeed())
			Expect(registry.Exists(ctx, instanceID)).To(BeTrue())
			Expect(bucket.Exists(ctx, "service-instance-"+instanceID)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			Expect(registry.Create(ctx, instanceID)).To(Succeed())
		})

		It("removes an empty instance", func() {
			Expect(registry.Delete(ctx, instanceID)).To(Succeed())
			Expect(registry.Exists(ctx, instanceID)).To(BeFalse())
		})

		It("purges the bucket contents first", func() {
			bucketName := instances.BucketName(instanceID)
			Expect(bucket.PutObject(ctx, bucketName, "a", []byte("1"))).To(Succeed())
			Expect(bucket.PutObject(ctx, bucketName, "b", []byte("2"))).To(Succeed())

			Expect(registry.Delete(ctx, instanceID)).To(Succeed())
			Expect(registry.Exists(ctx, instanceID)).To(BeFalse())
		})

		It("reports an unknown instance", func() {
			err := registry.Delete(ctx, "unknown")
			Expect(errors.Is(err, instances.ErrInstanceNotFound)).To(BeTrue())
		})

		It("reports a bucket that disappears mid-delete as not found", func() {
			bucket.FailOn("ListObjects", awss3.ErrBucketDoesNotExist)

			err := registry.Delete(ctx, instanceID)
			Expect(errors.Is(err, instances.ErrInstanceNotFound)).To(BeTrue())
		})

		It("classifies a failed delete", func() {
			bucket.FailOn("Delete", MyError{message: "some-error-message"})

			err := registry.Delete(ctx, instanceID)
			Expect(errors.Is(err, instances.ErrClientError)).To(BeTrue())
			Expect(err.Error()).To(Equal("MyError: some-error-message"))
		})
	})
})
