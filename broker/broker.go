package broker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"github.com/pivotal-cf/brokerapi/v10/domain"
	"github.com/pivotal-cf/brokerapi/v10/domain/apiresponses"

	"github.com/cloud-gov/riak-cs-broker/instances"
)

const instanceIDLogKey = "instance-id"
const bindingIDLogKey = "binding-id"
const detailsLogKey = "details"
const asyncAllowedLogKey = "asyncAllowed"

var errNotBindable = apiresponses.NewFailureResponse(errors.New("This service is not bindable"), http.StatusUnprocessableEntity, "bind")

type InstanceRegistry interface {
	Exists(ctx context.Context, instanceID string) (bool, error)
	Create(ctx context.Context, instanceID string) error
	Delete(ctx context.Context, instanceID string) error
}

type BindingManager interface {
	Bind(ctx context.Context, instanceID, bindingID string) (instances.Credentials, error)
	Unbind(ctx context.Context, instanceID, bindingID string) error
}

type RiakCSBroker struct {
	catalog  Catalog
	registry InstanceRegistry
	bindings BindingManager
	logger   lager.Logger
}

func New(
	config Config,
	registry InstanceRegistry,
	bindings BindingManager,
	logger lager.Logger,
) *RiakCSBroker {
	catalog := config.Catalog
	if len(catalog.Services) == 0 {
		catalog = DefaultCatalog()
	}

	return &RiakCSBroker{
		catalog:  catalog,
		registry: registry,
		bindings: bindings,
		logger:   logger.Session("broker"),
	}
}

func (b *RiakCSBroker) Services(ctx context.Context) ([]domain.Service, error) {
	return b.catalog.DomainServices(), nil
}

func (b *RiakCSBroker) Provision(ctx context.Context, instanceID string, details domain.ProvisionDetails, asyncAllowed bool) (domain.ProvisionedServiceSpec, error) {
	b.logger.Debug("provision", lager.Data{
		instanceIDLogKey:   instanceID,
		detailsLogKey:      details,
		asyncAllowedLogKey: asyncAllowed,
	})

	provisionedServiceSpec := domain.ProvisionedServiceSpec{}

	if _, ok := b.catalog.FindServicePlan(details.PlanID); !ok {
		return provisionedServiceSpec, fmt.Errorf("Service Plan '%s' not found", details.PlanID)
	}

	exists, err := b.registry.Exists(ctx, instanceID)
	if err != nil {
		return provisionedServiceSpec, b.failure(err, "provision")
	}
	if exists {
		return provisionedServiceSpec, apiresponses.ErrInstanceAlreadyExists
	}

	if err := b.registry.Create(ctx, instanceID); err != nil {
		return provisionedServiceSpec, b.failure(err, "provision")
	}

	return provisionedServiceSpec, nil
}

func (b *RiakCSBroker) Deprovision(ctx context.Context, instanceID string, details domain.DeprovisionDetails, asyncAllowed bool) (domain.DeprovisionServiceSpec, error) {
	b.logger.Debug("deprovision", lager.Data{
		instanceIDLogKey:   instanceID,
		detailsLogKey:      details,
		asyncAllowedLogKey: asyncAllowed,
	})

	if err := b.registry.Delete(ctx, instanceID); err != nil {
		if errors.Is(err, instances.ErrInstanceNotFound) {
			return domain.DeprovisionServiceSpec{}, apiresponses.ErrInstanceDoesNotExist
		}
		return domain.DeprovisionServiceSpec{}, b.failure(err, "deprovision")
	}

	return domain.DeprovisionServiceSpec{}, nil
}

func (b *RiakCSBroker) Bind(ctx context.Context, instanceID, bindingID string, details domain.BindDetails, asyncAllowed bool) (domain.Binding, error) {
	b.logger.Debug("bind", lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
		detailsLogKey:    details,
	})

	binding := domain.Binding{}

	service, ok := b.catalog.FindService(details.ServiceID)
	if !ok {
		return binding, fmt.Errorf("Service '%s' not found", details.ServiceID)
	}

	if !service.Bindable {
		return binding, errNotBindable
	}

	credentials, err := b.bindings.Bind(ctx, instanceID, bindingID)
	if err != nil {
		switch {
		case errors.Is(err, instances.ErrInstanceNotFound):
			return binding, apiresponses.NewFailureResponse(err, http.StatusNotFound, "bind")
		case errors.Is(err, instances.ErrBindingAlreadyExists):
			return binding, apiresponses.NewFailureResponse(err, http.StatusConflict, "bind")
		}
		return binding, b.failure(err, "bind")
	}

	binding.Credentials = credentials
	return binding, nil
}

func (b *RiakCSBroker) Unbind(ctx context.Context, instanceID, bindingID string, details domain.UnbindDetails, asyncAllowed bool) (domain.UnbindSpec, error) {
	b.logger.Debug("unbind", lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
		detailsLogKey:    details,
	})

	if err := b.bindings.Unbind(ctx, instanceID, bindingID); err != nil {
		switch {
		case errors.Is(err, instances.ErrInstanceNotFound):
			return domain.UnbindSpec{}, apiresponses.ErrInstanceDoesNotExist
		case errors.Is(err, instances.ErrBindingNotFound):
			return domain.UnbindSpec{}, apiresponses.ErrBindingDoesNotExist
		}
		return domain.UnbindSpec{}, b.failure(err, "unbind")
	}

	return domain.UnbindSpec{}, nil
}

func (b *RiakCSBroker) Update(ctx context.Context, instanceID string, details domain.UpdateDetails, asyncAllowed bool) (domain.UpdateServiceSpec, error) {
	b.logger.Debug("update", lager.Data{
		instanceIDLogKey:   instanceID,
		detailsLogKey:      details,
		asyncAllowedLogKey: asyncAllowed,
	})

	return domain.UpdateServiceSpec{}, unsupported("This broker does not support updating service instances", "update")
}

func (b *RiakCSBroker) GetInstance(ctx context.Context, instanceID string, details domain.FetchInstanceDetails) (domain.GetInstanceDetailsSpec, error) {
	return domain.GetInstanceDetailsSpec{}, unsupported("This broker does not support fetching service instances", "get-instance")
}

func (b *RiakCSBroker) LastOperation(ctx context.Context, instanceID string, details domain.PollDetails) (domain.LastOperation, error) {
	b.logger.Debug("last-operation", lager.Data{
		instanceIDLogKey: instanceID,
	})

	return domain.LastOperation{}, unsupported("This broker does not support LastOperation", "last-operation")
}

func (b *RiakCSBroker) GetBinding(ctx context.Context, instanceID, bindingID string, details domain.FetchBindingDetails) (domain.GetBindingSpec, error) {
	return domain.GetBindingSpec{}, unsupported("This broker does not support fetching service bindings", "get-binding")
}

func (b *RiakCSBroker) LastBindingOperation(ctx context.Context, instanceID, bindingID string, details domain.PollDetails) (domain.LastOperation, error) {
	return domain.LastOperation{}, unsupported("This broker does not support LastBindingOperation", "last-binding-operation")
}

// failure maps an unavailable backend to 503 and any other backend failure to
// 500, keeping the classified message as the description.
func (b *RiakCSBroker) failure(err error, action string) error {
	b.logger.Error(action+"-error", err)

	if errors.Is(err, instances.ErrUnavailable) {
		return apiresponses.NewFailureResponse(err, http.StatusServiceUnavailable, action)
	}
	return apiresponses.NewFailureResponse(err, http.StatusInternalServerError, action)
}

func unsupported(message, action string) error {
	return apiresponses.NewFailureResponse(errors.New(message), http.StatusUnprocessableEntity, action)
}
