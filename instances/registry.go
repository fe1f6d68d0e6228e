package instances

import (
	"context"
	"errors"

	"code.cloudfoundry.org/lager/v3"

	"github.com/cloud-gov/riak-cs-broker/awss3"
)

const (
	instanceIDLogKey = "instance-id"
	bindingIDLogKey  = "binding-id"

	// InstanceBucketPrefix prefixes every bucket that backs a service instance.
	InstanceBucketPrefix = "service-instance-"
)

// BucketName is the bucket backing instanceID.
func BucketName(instanceID string) string {
	return InstanceBucketPrefix + instanceID
}

// Registry maps service instances onto Riak CS buckets. It keeps no state of
// its own; every call asks the backend.
type Registry struct {
	bucket awss3.Bucket
	logger lager.Logger
}

func NewRegistry(bucket awss3.Bucket, logger lager.Logger) *Registry {
	return &Registry{
		bucket: bucket,
		logger: logger.Session("instance-registry"),
	}
}

func (r *Registry) Exists(ctx context.Context, instanceID string) (bool, error) {
	r.logger.Debug("exists", lager.Data{instanceIDLogKey: instanceID})

	exists, err := r.bucket.Exists(ctx, BucketName(instanceID))
	if err != nil {
		return false, classify(err)
	}
	return exists, nil
}

// Create creates the instance bucket. It does not check for an existing
// instance; callers that need conflict detection call Exists first.
func (r *Registry) Create(ctx context.Context, instanceID string) error {
	r.logger.Debug("create", lager.Data{instanceIDLogKey: instanceID})

	if err := r.bucket.Create(ctx, BucketName(instanceID)); err != nil {
		return classify(err)
	}
	return nil
}

// Delete removes every object in the instance bucket and then the bucket.
func (r *Registry) Delete(ctx context.Context, instanceID string) error {
	logger := r.logger.Session("delete", lager.Data{instanceIDLogKey: instanceID})

	exists, err := r.Exists(ctx, instanceID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInstanceNotFound
	}

	bucketName := BucketName(instanceID)
	keys, err := r.bucket.ListObjects(ctx, bucketName)
	if err != nil {
		return r.deleteError(err)
	}
	logger.Debug("purge-objects", lager.Data{"count": len(keys)})

	for _, key := range keys {
		if err := r.bucket.DeleteObject(ctx, bucketName, key); err != nil && !errors.Is(err, awss3.ErrObjectDoesNotExist) {
			return classify(err)
		}
	}

	if err := r.bucket.Delete(ctx, bucketName); err != nil {
		return r.deleteError(err)
	}
	return nil
}

// deleteError reports a bucket that vanished between the existence check and
// the delete as a missing instance.
func (r *Registry) deleteError(err error) error {
	if errors.Is(err, awss3.ErrBucketDoesNotExist) {
		return ErrInstanceNotFound
	}
	return classify(err)
}
