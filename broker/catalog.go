package broker

import (
	"fmt"

	"github.com/pivotal-cf/brokerapi/v10/domain"
)

const (
	DefaultServiceID = "33d2eeb0-0236-4c83-b494-da3faeb5b2e8"
	DefaultPlanID    = "946ce484-376b-41b4-8c4e-4bc830676115"
)

type Catalog struct {
	Services []Service `yaml:"services,omitempty"`
}

type Service struct {
	ID              string                         `yaml:"id"`
	Name            string                         `yaml:"name"`
	Description     string                         `yaml:"description"`
	Bindable        bool                           `yaml:"bindable"`
	Tags            []string                       `yaml:"tags,omitempty"`
	PlanUpdatable   bool                           `yaml:"plan_updateable"`
	Plans           []ServicePlan                  `yaml:"plans"`
	Requires        []domain.RequiredPermission    `yaml:"requires,omitempty"`
	Metadata        *domain.ServiceMetadata        `yaml:"metadata,omitempty"`
	DashboardClient *domain.ServiceDashboardClient `yaml:"dashboard_client,omitempty"`
}

type ServicePlan struct {
	ID          string                      `yaml:"id"`
	Name        string                      `yaml:"name"`
	Description string                      `yaml:"description"`
	Free        bool                        `yaml:"free"`
	Metadata    *domain.ServicePlanMetadata `yaml:"metadata,omitempty"`
}

// DefaultCatalog is served when the configuration has no catalog of its own.
func DefaultCatalog() Catalog {
	return Catalog{
		Services: []Service{
			{
				ID:          DefaultServiceID,
				Name:        "riak-cs",
				Description: "An S3-compatible open source storage built on top of Riak.",
				Bindable:    true,
				Tags:        []string{"blobstore"},
				Metadata: &domain.ServiceMetadata{
					DisplayName:         "Riak CS",
					LongDescription:     "Provisions a bucket on a Riak CS cluster and a user with read and write access to it.",
					ProviderDisplayName: "Riak CS",
				},
				Plans: []ServicePlan{
					{
						ID:          DefaultPlanID,
						Name:        "bucket",
						Description: "An S3-compatible bucket",
						Free:        true,
						Metadata: &domain.ServicePlanMetadata{
							DisplayName: "Bucket",
							Bullets:     []string{"Single S3-compatible bucket", "Unlimited storage", "Unlimited number of objects"},
							Costs: []domain.ServicePlanCost{
								{
									Amount: map[string]float64{"usd": 0.0},
									Unit:   "MONTHLY",
								},
							},
						},
					},
				},
			},
		},
	}
}

func (c Catalog) Validate() error {
	for _, service := range c.Services {
		if err := service.Validate(); err != nil {
			return fmt.Errorf("Validating Services configuration: %s", err)
		}
	}

	return nil
}

func (c Catalog) FindService(serviceID string) (service Service, found bool) {
	for _, service := range c.Services {
		if service.ID == serviceID {
			return service, true
		}
	}

	return service, false
}

func (c Catalog) FindServicePlan(planID string) (plan ServicePlan, found bool) {
	for _, service := range c.Services {
		for _, plan := range service.Plans {
			if plan.ID == planID {
				return plan, true
			}
		}
	}

	return plan, false
}

func (c Catalog) DomainServices() []domain.Service {
	services := make([]domain.Service, 0, len(c.Services))
	for _, service := range c.Services {
		services = append(services, service.domainService())
	}
	return services
}

func (s Service) domainService() domain.Service {
	plans := make([]domain.ServicePlan, 0, len(s.Plans))
	for _, plan := range s.Plans {
		free := plan.Free
		plans = append(plans, domain.ServicePlan{
			ID:          plan.ID,
			Name:        plan.Name,
			Description: plan.Description,
			Free:        &free,
			Metadata:    plan.Metadata,
		})
	}

	return domain.Service{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Bindable:        s.Bindable,
		Tags:            s.Tags,
		PlanUpdatable:   s.PlanUpdatable,
		Plans:           plans,
		Requires:        s.Requires,
		Metadata:        s.Metadata,
		DashboardClient: s.DashboardClient,
	}
}

func (s Service) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("Must provide a non-empty ID (%+v)", s)
	}

	if s.Name == "" {
		return fmt.Errorf("Must provide a non-empty Name (%+v)", s)
	}

	if s.Description == "" {
		return fmt.Errorf("Must provide a non-empty Description (%+v)", s)
	}

	for _, servicePlan := range s.Plans {
		if err := servicePlan.Validate(); err != nil {
			return fmt.Errorf("Validating Plans configuration: %s", err)
		}
	}

	return nil
}

func (sp ServicePlan) Validate() error {
	if sp.ID == "" {
		return fmt.Errorf("Must provide a non-empty ID (%+v)", sp)
	}

	if sp.Name == "" {
		return fmt.Errorf("Must provide a non-empty Name (%+v)", sp)
	}

	if sp.Description == "" {
		return fmt.Errorf("Must provide a non-empty Description (%+v)", sp)
	}

	return nil
}
