package awss3

import (
	"context"

	"github.com/cloud-gov/riak-cs-broker/fault"
)

type Bucket interface {
	Exists(ctx context.Context, bucketName string) (bool, error)
	Create(ctx context.Context, bucketName string) error
	Delete(ctx context.Context, bucketName string) error
	List(ctx context.Context, prefix string) ([]string, error)
	ListObjects(ctx context.Context, bucketName string) ([]string, error)
	PutObject(ctx context.Context, bucketName, key string, body []byte) error
	GetObject(ctx context.Context, bucketName, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucketName, key string) error
	GetACL(ctx context.Context, bucketName string) (ACL, error)
	PutACL(ctx context.Context, bucketName string, acl ACL) error
}

type Permission string

const (
	PermissionRead        Permission = "READ"
	PermissionWrite       Permission = "WRITE"
	PermissionReadACP     Permission = "READ_ACP"
	PermissionWriteACP    Permission = "WRITE_ACP"
	PermissionFullControl Permission = "FULL_CONTROL"
)

const (
	granteeTypeCanonicalUser = "CanonicalUser"
	granteeTypeGroup         = "Group"
)

type Grantee struct {
	ID          string
	DisplayName string
	Type        string
	URI         string
}

type Grant struct {
	Permission Permission
	Grantee    Grantee
}

// ACL is a bucket's full access control policy. Riak CS only accepts it as a
// whole, so callers read it, change the grant list and write it back.
type ACL struct {
	Owner  Grantee
	Grants []Grant
}

var (
	ErrBucketDoesNotExist = fault.New(fault.NotFound, "NoSuchBucket", "s3 bucket does not exist")
	ErrObjectDoesNotExist = fault.New(fault.NotFound, "NoSuchKey", "s3 object does not exist")
)
