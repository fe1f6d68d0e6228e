package awss3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/cloud-gov/riak-cs-broker/fault"
)

type S3Client interface {
	HeadBucketWithContext(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error)
	CreateBucketWithContext(ctx aws.Context, input *s3.CreateBucketInput, opts ...request.Option) (*s3.CreateBucketOutput, error)
	DeleteBucketWithContext(ctx aws.Context, input *s3.DeleteBucketInput, opts ...request.Option) (*s3.DeleteBucketOutput, error)
	ListBucketsWithContext(ctx aws.Context, input *s3.ListBucketsInput, opts ...request.Option) (*s3.ListBucketsOutput, error)
	ListObjectsPagesWithContext(ctx aws.Context, input *s3.ListObjectsInput, fn func(*s3.ListObjectsOutput, bool) bool, opts ...request.Option) error
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error)
	GetBucketAclWithContext(ctx aws.Context, input *s3.GetBucketAclInput, opts ...request.Option) (*s3.GetBucketAclOutput, error)
	PutBucketAclWithContext(ctx aws.Context, input *s3.PutBucketAclInput, opts ...request.Option) (*s3.PutBucketAclOutput, error)
}

type S3Bucket struct {
	s3svc  S3Client
	logger lager.Logger
}

func NewS3Bucket(
	s3svc S3Client,
	logger lager.Logger,
) *S3Bucket {
	return &S3Bucket{
		s3svc:  s3svc,
		logger: logger.Session("s3-bucket"),
	}
}

func (s *S3Bucket) Exists(ctx context.Context, bucketName string) (bool, error) {
	headBucketInput := &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	}
	s.logger.Debug("head-bucket", lager.Data{"input": headBucketInput})

	_, err := s.s3svc.HeadBucketWithContext(ctx, headBucketInput)
	if err != nil {
		translated := s.translate(err, ErrBucketDoesNotExist)
		if translated == ErrBucketDoesNotExist {
			return false, nil
		}
		s.logger.Error("aws-s3-error", err)
		return false, translated
	}

	return true, nil
}

func (s *S3Bucket) Create(ctx context.Context, bucketName string) error {
	createBucketInput := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}
	s.logger.Debug("create-bucket", lager.Data{"input": createBucketInput})

	createBucketOutput, err := s.s3svc.CreateBucketWithContext(ctx, createBucketInput)
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return s.translate(err, nil)
	}
	s.logger.Debug("create-bucket", lager.Data{"output": createBucketOutput})

	return nil
}

func (s *S3Bucket) Delete(ctx context.Context, bucketName string) error {
	deleteBucketInput := &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	}
	s.logger.Debug("delete-bucket", lager.Data{"input": deleteBucketInput})

	if _, err := s.s3svc.DeleteBucketWithContext(ctx, deleteBucketInput); err != nil {
		s.logger.Error("aws-s3-error", err)
		return s.translate(err, ErrBucketDoesNotExist)
	}

	return nil
}

// List returns the names of all buckets owned by the broker's credentials
// that start with prefix.
func (s *S3Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	s.logger.Debug("list-buckets", lager.Data{"prefix": prefix})

	listBucketsOutput, err := s.s3svc.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return nil, s.translate(err, nil)
	}

	var names []string
	for _, bucket := range listBucketsOutput.Buckets {
		name := aws.StringValue(bucket.Name)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *S3Bucket) ListObjects(ctx context.Context, bucketName string) ([]string, error) {
	listObjectsInput := &s3.ListObjectsInput{
		Bucket: aws.String(bucketName),
	}
	s.logger.Debug("list-objects", lager.Data{"input": listObjectsInput})

	var keys []string
	err := s.s3svc.ListObjectsPagesWithContext(ctx, listObjectsInput, func(page *s3.ListObjectsOutput, lastPage bool) bool {
		for _, object := range page.Contents {
			keys = append(keys, aws.StringValue(object.Key))
		}
		return true
	})
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return nil, s.translate(err, ErrBucketDoesNotExist)
	}

	return keys, nil
}

func (s *S3Bucket) PutObject(ctx context.Context, bucketName, key string, body []byte) error {
	s.logger.Debug("put-object", lager.Data{"bucket": bucketName, "key": key})

	_, err := s.s3svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return s.translate(err, ErrBucketDoesNotExist)
	}

	return nil
}

func (s *S3Bucket) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	s.logger.Debug("get-object", lager.Data{"bucket": bucketName, "key": key})

	getObjectOutput, err := s.s3svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		translated := s.translate(err, ErrObjectDoesNotExist)
		if translated != ErrObjectDoesNotExist {
			s.logger.Error("aws-s3-error", err)
		}
		return nil, translated
	}
	defer getObjectOutput.Body.Close()

	body, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		s.logger.Error("read-object-error", err)
		return nil, fault.Wrap(fault.Other, err)
	}

	return body, nil
}

func (s *S3Bucket) DeleteObject(ctx context.Context, bucketName, key string) error {
	s.logger.Debug("delete-object", lager.Data{"bucket": bucketName, "key": key})

	_, err := s.s3svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return s.translate(err, ErrObjectDoesNotExist)
	}

	return nil
}

func (s *S3Bucket) GetACL(ctx context.Context, bucketName string) (ACL, error) {
	getACLInput := &s3.GetBucketAclInput{
		Bucket: aws.String(bucketName),
	}
	s.logger.Debug("get-bucket-acl", lager.Data{"input": getACLInput})

	getACLOutput, err := s.s3svc.GetBucketAclWithContext(ctx, getACLInput)
	if err != nil {
		s.logger.Error("aws-s3-error", err)
		return ACL{}, s.translate(err, ErrBucketDoesNotExist)
	}
	s.logger.Debug("get-bucket-acl", lager.Data{"output": getACLOutput})

	acl := ACL{}
	if getACLOutput.Owner != nil {
		acl.Owner = Grantee{
			ID:          aws.StringValue(getACLOutput.Owner.ID),
			DisplayName: aws.StringValue(getACLOutput.Owner.DisplayName),
		}
	}
	for _, grant := range getACLOutput.Grants {
		if grant == nil || grant.Grantee == nil {
			continue
		}
		acl.Grants = append(acl.Grants, Grant{
			Permission: Permission(aws.StringValue(grant.Permission)),
			Grantee: Grantee{
				ID:          aws.StringValue(grant.Grantee.ID),
				DisplayName: aws.StringValue(grant.Grantee.DisplayName),
				Type:        aws.StringValue(grant.Grantee.Type),
				URI:         aws.StringValue(grant.Grantee.URI),
			},
		})
	}

	return acl, nil
}

func (s *S3Bucket) PutACL(ctx context.Context, bucketName string, acl ACL) error {
	putACLInput := &s3.PutBucketAclInput{
		Bucket:              aws.String(bucketName),
		AccessControlPolicy: buildAccessControlPolicy(acl),
	}
	s.logger.Debug("put-bucket-acl", lager.Data{"input": putACLInput})

	if _, err := s.s3svc.PutBucketAclWithContext(ctx, putACLInput); err != nil {
		s.logger.Error("aws-s3-error", err)
		return s.translate(err, ErrBucketDoesNotExist)
	}

	return nil
}

func buildAccessControlPolicy(acl ACL) *s3.AccessControlPolicy {
	policy := &s3.AccessControlPolicy{
		Owner: &s3.Owner{
			ID:          aws.String(acl.Owner.ID),
			DisplayName: optionalString(acl.Owner.DisplayName),
		},
		Grants: []*s3.Grant{},
	}
	for _, grant := range acl.Grants {
		granteeType := grant.Grantee.Type
		if granteeType == "" && grant.Grantee.URI != "" {
			granteeType = granteeTypeGroup
		} else if granteeType == "" {
			granteeType = granteeTypeCanonicalUser
		}
		policy.Grants = append(policy.Grants, &s3.Grant{
			Permission: aws.String(string(grant.Permission)),
			Grantee: &s3.Grantee{
				ID:          optionalString(grant.Grantee.ID),
				DisplayName: optionalString(grant.Grantee.DisplayName),
				Type:        aws.String(granteeType),
				URI:         optionalString(grant.Grantee.URI),
			},
		})
	}
	return policy
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return aws.String(value)
}

// translate turns an aws-sdk error into a *fault.Fault. When notFound is set
// and the backend reports a missing resource, notFound itself is returned.
func (s *S3Bucket) translate(err error, notFound *fault.Fault) error {
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return fault.Wrap(fault.Other, err)
	}

	kind := fault.Other
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case http.StatusNotFound:
			kind = fault.NotFound
		case http.StatusServiceUnavailable:
			kind = fault.Unavailable
		}
	}

	switch awsErr.Code() {
	case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey, "NotFound":
		kind = fault.NotFound
	case "ServiceUnavailable", "SlowDown":
		kind = fault.Unavailable
	case request.ErrCodeResponseTimeout:
		kind = fault.Timeout
	}
	if kind == fault.Other && (fault.IsTimeout(err) || fault.IsTimeout(awsErr.OrigErr())) {
		kind = fault.Timeout
	}

	if kind == fault.NotFound && notFound != nil {
		return notFound
	}

	return &fault.Fault{
		Kind:    kind,
		Type:    awsErr.Code(),
		Message: awsErr.Message(),
		Err:     err,
	}
}
