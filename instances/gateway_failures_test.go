package instances_test

import (
	"context"
	"errors"

	"code.cloudfoundry.org/lager/v3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloud-gov/riak-cs-broker/fakes"
	"github.com/cloud-gov/riak-cs-broker/instances"
	"github.com/cloud-gov/riak-cs-broker/provider"
)

type operation int

const (
	provisionOp operation = iota
	existsOp
	bindOp
	boundOp
	unbindOp
	deprovisionOp
)

var _ = Describe("Gateway failures", func() {
	var (
		ctx      context.Context
		bucket   *fakes.FakeBucket
		registry *instances.Registry
		bindings *instances.Bindings
	)

	BeforeEach(func() {
		ctx = context.Background()
		bucket = fakes.NewFakeBucket()
		logger := lager.NewLogger("test")
		registry = instances.NewRegistry(bucket, logger)

		var err error
		bindings, err = instances.NewBindings(ctx, registry, bucket, fakes.NewFakeUser(), provider.New("https", "riak.example.com", 8080), logger)
		Expect(err).NotTo(HaveOccurred())
	})

	// prepare leaves the backend in the state the operation needs to reach
	// every gateway call it makes.
	prepare := func(op operation) {
		switch op {
		case bindOp:
			Expect(registry.Create(ctx, "abc")).To(Succeed())
		case unbindOp, boundOp:
			Expect(registry.Create(ctx, "abc")).To(Succeed())
			_, err := bindings.Bind(ctx, "abc", "b1")
			Expect(err).NotTo(HaveOccurred())
		case existsOp, deprovisionOp:
			Expect(registry.Create(ctx, "abc")).To(Succeed())
			Expect(bucket.PutObject(ctx, instances.BucketName("abc"), "a", []byte("1"))).To(Succeed())
		}
	}

	run := func(op operation) error {
		switch op {
		case provisionOp:
			return registry.Create(ctx, "abc")
		case existsOp:
			_, err := registry.Exists(ctx, "abc")
			return err
		case bindOp:
			_, err := bindings.Bind(ctx, "abc", "b1")
			return err
		case boundOp:
			_, err := bindings.Bound(ctx, "b1")
			return err
		case unbindOp:
			return bindings.Unbind(ctx, "abc", "b1")
		default:
			return registry.Delete(ctx, "abc")
		}
	}

	entries := []TableEntry{
		Entry("Create on provision", provisionOp, "Create"),
		Entry("Exists on exists", existsOp, "Exists"),
		Entry("Exists on bind", bindOp, "Exists"),
		Entry("GetObject on bind", bindOp, "GetObject"),
		Entry("PutObject on bind", bindOp, "PutObject"),
		Entry("GetACL on bind", bindOp, "GetACL"),
		Entry("PutACL on bind", bindOp, "PutACL"),
		Entry("GetObject on bound", boundOp, "GetObject"),
		Entry("Exists on unbind", unbindOp, "Exists"),
		Entry("GetObject on unbind", unbindOp, "GetObject"),
		Entry("GetACL on unbind", unbindOp, "GetACL"),
		Entry("PutACL on unbind", unbindOp, "PutACL"),
		Entry("DeleteObject on unbind", unbindOp, "DeleteObject"),
		Entry("Exists on deprovision", deprovisionOp, "Exists"),
		Entry("ListObjects on deprovision", deprovisionOp, "ListObjects"),
		Entry("DeleteObject on deprovision", deprovisionOp, "DeleteObject"),
		Entry("Delete on deprovision", deprovisionOp, "Delete"),
	}

	DescribeTable("a timeout is reported as unavailable",
		func(op operation, method string) {
			prepare(op)
			bucket.FailOn(method, timeoutError{})

			err := run(op)
			Expect(errors.Is(err, instances.ErrUnavailable)).To(BeTrue(), "got %v", err)
			Expect(bucket.Calls()).To(ContainElement(method))
		},
		entries,
	)

	DescribeTable("any other error is reported with its type and message",
		func(op operation, method string) {
			prepare(op)
			bucket.FailOn(method, MyError{message: "some-error-message"})

			err := run(op)
			Expect(errors.Is(err, instances.ErrClientError)).To(BeTrue(), "got %v", err)
			Expect(err.Error()).To(Equal("MyError: some-error-message"))
		},
		entries,
	)
})
