package instances_test

import (
	"context"
	"errors"

	"code.cloudfoundry.org/lager/v3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloud-gov/riak-cs-broker/fakes"
	"github.com/cloud-gov/riak-cs-broker/fault"
	"github.com/cloud-gov/riak-cs-broker/instances"
)

var _ = Describe("Errors", func() {
	var (
		ctx      context.Context
		bucket   *fakes.FakeBucket
		registry *instances.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		bucket = fakes.NewFakeBucket()
		registry = instances.NewRegistry(bucket, lager.NewLogger("test"))
	})

	It("matches sentinels by kind", func() {
		err := &instances.Error{Kind: instances.KindBindingNotFound, Message: "gone"}
		Expect(errors.Is(err, instances.ErrBindingNotFound)).To(BeTrue())
		Expect(errors.Is(err, instances.ErrInstanceNotFound)).To(BeFalse())
	})

	It("reports a timeout as unavailable", func() {
		bucket.FailOn("Exists", timeoutError{})

		_, err := registry.Exists(ctx, "abc")
		Expect(errors.Is(err, instances.ErrUnavailable)).To(BeTrue())
		Expect(err.Error()).To(Equal("Riak CS unavailable: timeoutError: i/o timeout"))
	})

	It("reports a 503 as unavailable", func() {
		bucket.FailOn("Exists", fault.New(fault.Unavailable, "ServiceUnavailable", "Please reduce your request rate."))

		_, err := registry.Exists(ctx, "abc")
		Expect(errors.Is(err, instances.ErrUnavailable)).To(BeTrue())
		Expect(err.Error()).To(Equal("Riak CS unavailable: ServiceUnavailable: Please reduce your request rate."))
	})

	It("reports anything else as a client error carrying the error type", func() {
		bucket.FailOn("Exists", MyError{message: "some-error-message"})

		_, err := registry.Exists(ctx, "abc")
		Expect(errors.Is(err, instances.ErrClientError)).To(BeTrue())
		Expect(err.Error()).To(Equal("MyError: some-error-message"))
	})

	It("keeps the underlying error in the chain", func() {
		cause := MyError{message: "some-error-message"}
		bucket.FailOn("Exists", cause)

		_, err := registry.Exists(ctx, "abc")
		var myErr MyError
		Expect(errors.As(err, &myErr)).To(BeTrue())
		Expect(myErr).To(Equal(cause))
	})
})
