package broker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/cloud-gov/riak-cs-broker/broker"
)

var _ = Describe("Catalog", func() {
	It("describes the riak-cs bucket plan by default", func() {
		services := DefaultCatalog().DomainServices()
		Expect(services).To(HaveLen(1))

		service := services[0]
		Expect(service.ID).To(Equal("33d2eeb0-0236-4c83-b494-da3faeb5b2e8"))
		Expect(service.Name).To(Equal("riak-cs"))
		Expect(service.Bindable).To(BeTrue())
		Expect(service.Tags).To(ConsistOf("blobstore"))

		Expect(service.Plans).To(HaveLen(1))
		plan := service.Plans[0]
		Expect(plan.ID).To(Equal("946ce484-376b-41b4-8c4e-4bc830676115"))
		Expect(plan.Name).To(Equal("bucket"))
		Expect(*plan.Free).To(BeTrue())
		Expect(plan.Metadata.Costs[0].Amount).To(Equal(map[string]float64{"usd": 0.0}))
		Expect(plan.Metadata.Costs[0].Unit).To(Equal("MONTHLY"))
	})

	It("validates the default catalog", func() {
		Expect(DefaultCatalog().Validate()).To(Succeed())
	})

	It("finds services and plans by id", func() {
		catalog := DefaultCatalog()

		service, ok := catalog.FindService(DefaultServiceID)
		Expect(ok).To(BeTrue())
		Expect(service.Name).To(Equal("riak-cs"))

		_, ok = catalog.FindService("unknown")
		Expect(ok).To(BeFalse())

		plan, ok := catalog.FindServicePlan(DefaultPlanID)
		Expect(ok).To(BeTrue())
		Expect(plan.Name).To(Equal("bucket"))
	})

	It("rejects a plan without a name", func() {
		catalog := DefaultCatalog()
		catalog.Services[0].Plans[0].Name = ""

		err := catalog.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Validating Plans configuration: Must provide a non-empty Name"))
	})
})
