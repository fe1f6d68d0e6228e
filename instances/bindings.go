package instances

import (
	"context"
	"errors"
	"fmt"

	"code.cloudfoundry.org/lager/v3"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/fault"
	"github.com/cloud-gov/riak-cs-broker/provider"
	"github.com/cloud-gov/riak-cs-broker/riakcs"
)

// BookkeepingBucket holds one object per binding, keyed by binding id, whose
// body is the id of the Riak CS user provisioned for it.
const BookkeepingBucket = "cf-riak-cs-service-broker-bindings"

type Credentials struct {
	URI             string `json:"uri"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// UserEmail is the email address the Riak CS user for bindingID is created with.
func UserEmail(bindingID string) string {
	return bindingID + "@example.com"
}

type Bindings struct {
	registry *Registry
	bucket   awss3.Bucket
	user     riakcs.User
	provider provider.Provider
	logger   lager.Logger
}

// NewBindings returns a binding manager, creating the bookkeeping bucket if
// it does not exist yet.
func NewBindings(
	ctx context.Context,
	registry *Registry,
	bucket awss3.Bucket,
	user riakcs.User,
	provider provider.Provider,
	logger lager.Logger,
) (*Bindings, error) {
	b := &Bindings{
		registry: registry,
		bucket:   bucket,
		user:     user,
		provider: provider,
		logger:   logger.Session("bindings"),
	}

	exists, err := bucket.Exists(ctx, BookkeepingBucket)
	if err != nil {
		return nil, classify(err)
	}
	if !exists {
		b.logger.Info("create-bookkeeping-bucket", lager.Data{"bucket": BookkeepingBucket})
		if err := bucket.Create(ctx, BookkeepingBucket); err != nil {
			return nil, classify(err)
		}
	}

	return b, nil
}

func (b *Bindings) Bind(ctx context.Context, instanceID, bindingID string) (Credentials, error) {
	logger := b.logger.Session("bind", lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	if err := b.requireInstance(ctx, instanceID); err != nil {
		return Credentials{}, err
	}

	bound, err := b.Bound(ctx, bindingID)
	if err != nil {
		return Credentials{}, err
	}
	if bound {
		return Credentials{}, newError(KindBindingAlreadyExists, fmt.Sprintf("Binding for %s already exists.", bindingID), nil)
	}

	user, err := b.user.Create(ctx, bindingID, UserEmail(bindingID))
	if err != nil {
		if fault.KindOf(err) == fault.Conflict {
			message := fmt.Sprintf("Attempted to create a Riak CS user for %s, but couldn't: %s.", bindingID, fault.Wrap(fault.Other, err).Message)
			return Credentials{}, newError(KindBindingAlreadyExists, message, err)
		}
		return Credentials{}, classify(err)
	}
	logger.Debug("user-created", lager.Data{"user-id": user.ID})

	// From here on a failure leaves the user provisioned. Retrying the bind
	// then fails with a user conflict until the user is removed by hand.
	if err := b.bucket.PutObject(ctx, BookkeepingBucket, bindingID, []byte(user.ID)); err != nil {
		logger.Error("store-binding-failed", err, lager.Data{"user-id": user.ID})
		return Credentials{}, classify(err)
	}

	bucketName := BucketName(instanceID)
	if err := updateACL(ctx, b.bucket, bucketName, grantTo(user.ID)); err != nil {
		logger.Error("grant-access-failed", err, lager.Data{"user-id": user.ID})
		return Credentials{}, classify(err)
	}

	return Credentials{
		URI:             b.provider.BucketURI(bucketName, user.KeyID, user.KeySecret),
		AccessKeyID:     user.KeyID,
		SecretAccessKey: user.KeySecret,
	}, nil
}

// Bound reports whether bindingID has a bookkeeping entry, regardless of
// which instance it was bound to.
func (b *Bindings) Bound(ctx context.Context, bindingID string) (bool, error) {
	_, bound, err := b.userID(ctx, bindingID)
	return bound, err
}

func (b *Bindings) Unbind(ctx context.Context, instanceID, bindingID string) error {
	logger := b.logger.Session("unbind", lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	if err := b.requireInstance(ctx, instanceID); err != nil {
		return err
	}

	userID, bound, err := b.userID(ctx, bindingID)
	if err != nil {
		return err
	}
	if !bound {
		return ErrBindingNotFound
	}

	if err := updateACL(ctx, b.bucket, BucketName(instanceID), revokeFrom(userID)); err != nil {
		logger.Error("revoke-access-failed", err, lager.Data{"user-id": userID})
		return classify(err)
	}

	if err := b.bucket.DeleteObject(ctx, BookkeepingBucket, bindingID); err != nil && !errors.Is(err, awss3.ErrObjectDoesNotExist) {
		logger.Error("delete-binding-failed", err, lager.Data{"user-id": userID})
		return classify(err)
	}

	return nil
}

// UserIDs returns the user id of every binding in the bookkeeping bucket.
func (b *Bindings) UserIDs(ctx context.Context) (map[string]string, error) {
	return NewBindingRecords(b.bucket).UserIDs(ctx)
}

func (b *Bindings) requireInstance(ctx context.Context, instanceID string) error {
	exists, err := b.registry.Exists(ctx, instanceID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInstanceNotFound
	}
	return nil
}

func (b *Bindings) userID(ctx context.Context, bindingID string) (string, bool, error) {
	return lookupUserID(ctx, b.bucket, bindingID)
}

// BindingRecords reads the bookkeeping bucket without preparing it, for
// callers that must not create buckets.
type BindingRecords struct {
	bucket awss3.Bucket
}

func NewBindingRecords(bucket awss3.Bucket) *BindingRecords {
	return &BindingRecords{bucket: bucket}
}

// UserIDs returns the user id of every recorded binding. A missing
// bookkeeping bucket means nothing was ever bound.
func (r *BindingRecords) UserIDs(ctx context.Context) (map[string]string, error) {
	bindingIDs, err := r.bucket.ListObjects(ctx, BookkeepingBucket)
	if errors.Is(err, awss3.ErrBucketDoesNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	userIDs := make(map[string]string, len(bindingIDs))
	for _, bindingID := range bindingIDs {
		userID, bound, err := lookupUserID(ctx, r.bucket, bindingID)
		if err != nil {
			return nil, err
		}
		if bound {
			userIDs[bindingID] = userID
		}
	}
	return userIDs, nil
}

func lookupUserID(ctx context.Context, bucket awss3.Bucket, bindingID string) (string, bool, error) {
	body, err := bucket.GetObject(ctx, BookkeepingBucket, bindingID)
	if errors.Is(err, awss3.ErrObjectDoesNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify(err)
	}
	return string(body), true, nil
}
