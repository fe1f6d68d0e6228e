package broker_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/cloud-gov/riak-cs-broker/broker"
)

var _ = Describe("Config", func() {
	var (
		config Config

		validConfig = Config{
			Host:            "riak.example.com",
			Port:            8080,
			AccessKeyID:     "admin-key",
			SecretAccessKey: "admin-secret",
			Catalog: Catalog{
				[]Service{
					Service{
						ID:          "service-1",
						Name:        "Service 1",
						Description: "Service 1 description",
					},
				},
			},
		}
	)

	Describe("Validate", func() {
		BeforeEach(func() {
			config = validConfig
		})

		It("does not return error if all sections are valid", func() {
			err := config.Validate()
			Expect(err).ToNot(HaveOccurred())
		})

		It("returns error if Host is not valid", func() {
			config.Host = ""

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Must provide a non-empty Host"))
		})

		It("returns error if Port is not valid", func() {
			config.Port = 0

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Must provide a valid Port"))
		})

		It("returns error if Scheme is not valid", func() {
			config.Scheme = "ftp"

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Must provide a Scheme of http or https"))
		})

		It("returns error if AccessKeyID is not valid", func() {
			config.AccessKeyID = ""

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Must provide a non-empty AccessKeyID"))
		})

		It("returns error if SecretAccessKey is not valid", func() {
			config.SecretAccessKey = ""

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Must provide a non-empty SecretAccessKey"))
		})

		It("returns error if Catalog is not valid", func() {
			config.Catalog = Catalog{
				[]Service{
					Service{},
				},
			}

			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Validating Catalog configuration"))
		})
	})

	Describe("FillDefaults", func() {
		It("fills the optional fields", func() {
			config = Config{Host: "riak.example.com"}
			config.FillDefaults()

			Expect(config.Scheme).To(Equal("https"))
			Expect(config.Region).To(Equal("us-east-1"))
			Expect(config.Timeout).To(Equal(30 * time.Second))
			Expect(config.Catalog).To(Equal(DefaultCatalog()))
		})

		It("keeps configured values", func() {
			config = validConfig
			config.Scheme = "http"
			config.Timeout = 5 * time.Second
			config.FillDefaults()

			Expect(config.Scheme).To(Equal("http"))
			Expect(config.Timeout).To(Equal(5 * time.Second))
			Expect(config.Catalog.Services[0].ID).To(Equal("service-1"))
		})
	})

	Describe("HTTPClient", func() {
		It("applies the timeout with the default transport", func() {
			config = validConfig
			config.Timeout = 5 * time.Second

			client := config.HTTPClient()
			Expect(client.Timeout).To(Equal(5 * time.Second))
			Expect(client.Transport).To(BeNil())
		})

		It("skips certificate verification when configured", func() {
			config = validConfig
			config.InsecureSkipVerify = true

			transport, ok := config.HTTPClient().Transport.(*http.Transport)
			Expect(ok).To(BeTrue())
			Expect(transport.TLSClientConfig.InsecureSkipVerify).To(BeTrue())
		})
	})
})
