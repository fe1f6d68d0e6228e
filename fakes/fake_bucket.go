// Package fakes provides an in-memory Riak CS for tests: buckets, objects,
// ACLs and user provisioning, with per-call fault injection.
package fakes

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/fault"
)

const DefaultOwnerID = "broker-admin-id"

type fakeBucketState struct {
	objects map[string][]byte
	acl     awss3.ACL
}

type FakeBucket struct {
	mu      sync.Mutex
	buckets map[string]*fakeBucketState
	errors  map[string]error
	calls   []string
}

func NewFakeBucket() *FakeBucket {
	return &FakeBucket{
		buckets: map[string]*fakeBucketState{},
		errors:  map[string]error{},
	}
}

// FailOn makes every later call to method (e.g. "GetACL") return err. A nil
// err clears the failure.
func (f *FakeBucket) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errors, method)
		return
	}
	f.errors[method] = err
}

// Calls returns the methods called so far, in order.
func (f *FakeBucket) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeBucket) call(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.errors[method]
}

func (f *FakeBucket) Exists(ctx context.Context, bucketName string) (bool, error) {
	if err := f.call("Exists"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[bucketName]
	return ok, nil
}

func (f *FakeBucket) Create(ctx context.Context, bucketName string) error {
	if err := f.call("Create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucketName]; ok {
		return fault.New(fault.Other, "BucketAlreadyOwnedByYou", "Your previous request to create the named bucket succeeded and you already own it.")
	}
	f.buckets[bucketName] = &fakeBucketState{
		objects: map[string][]byte{},
		acl: awss3.ACL{
			Owner: awss3.Grantee{ID: DefaultOwnerID, DisplayName: "admin"},
			Grants: []awss3.Grant{
				{
					Permission: awss3.PermissionFullControl,
					Grantee:    awss3.Grantee{ID: DefaultOwnerID, DisplayName: "admin", Type: "CanonicalUser"},
				},
			},
		},
	}
	return nil
}

func (f *FakeBucket) Delete(ctx context.Context, bucketName string) error {
	if err := f.call("Delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return awss3.ErrBucketDoesNotExist
	}
	if len(state.objects) > 0 {
		return fault.New(fault.Other, "BucketNotEmpty", "The bucket you tried to delete is not empty.")
	}
	delete(f.buckets, bucketName)
	return nil
}

func (f *FakeBucket) List(ctx context.Context, prefix string) ([]string, error) {
	if err := f.call("List"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name := range f.buckets {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeBucket) ListObjects(ctx context.Context, bucketName string) ([]string, error) {
	if err := f.call("ListObjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return nil, awss3.ErrBucketDoesNotExist
	}
	var keys []string
	for key := range state.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FakeBucket) PutObject(ctx context.Context, bucketName, key string, body []byte) error {
	if err := f.call("PutObject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return awss3.ErrBucketDoesNotExist
	}
	state.objects[key] = append([]byte(nil), body...)
	return nil
}

func (f *FakeBucket) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	if err := f.call("GetObject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return nil, awss3.ErrObjectDoesNotExist
	}
	body, ok := state.objects[key]
	if !ok {
		return nil, awss3.ErrObjectDoesNotExist
	}
	return append([]byte(nil), body...), nil
}

// DeleteObject of a missing key succeeds, as it does in S3.
func (f *FakeBucket) DeleteObject(ctx context.Context, bucketName, key string) error {
	if err := f.call("DeleteObject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return awss3.ErrBucketDoesNotExist
	}
	delete(state.objects, key)
	return nil
}

func (f *FakeBucket) GetACL(ctx context.Context, bucketName string) (awss3.ACL, error) {
	if err := f.call("GetACL"); err != nil {
		return awss3.ACL{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return awss3.ACL{}, awss3.ErrBucketDoesNotExist
	}
	acl := state.acl
	acl.Grants = append([]awss3.Grant(nil), state.acl.Grants...)
	return acl, nil
}

func (f *FakeBucket) PutACL(ctx context.Context, bucketName string, acl awss3.ACL) error {
	if err := f.call("PutACL"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.buckets[bucketName]
	if !ok {
		return awss3.ErrBucketDoesNotExist
	}
	state.acl = acl
	state.acl.Grants = append([]awss3.Grant(nil), acl.Grants...)
	return nil
}
