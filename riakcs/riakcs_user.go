package riakcs

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/pkg/errors"

	"github.com/cloud-gov/riak-cs-broker/fault"
)

const signingService = "s3"

type RiakCSUser struct {
	httpClient *http.Client
	adminURL   string
	signer     *v4.Signer
	region     string
	logger     lager.Logger
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// NewRiakCSUser returns a client for the user resource of the Riak CS admin
// API at adminURL (for example https://riak.example.com:8080/riak-cs/user).
// Requests are signed with the admin credentials.
func NewRiakCSUser(
	httpClient *http.Client,
	adminURL string,
	creds *credentials.Credentials,
	region string,
	logger lager.Logger,
) *RiakCSUser {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &RiakCSUser{
		httpClient: httpClient,
		adminURL:   adminURL,
		signer:     v4.NewSigner(creds),
		region:     region,
		logger:     logger.Session("riakcs-user"),
	}
}

func (u *RiakCSUser) Create(ctx context.Context, name, email string) (UserDetails, error) {
	body, err := json.Marshal(createUserRequest{Email: email, Name: name})
	if err != nil {
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}
	u.logger.Debug("create-user", lager.Data{"name": name, "email": email})

	bodyReader := bytes.NewReader(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.adminURL, bodyReader)
	if err != nil {
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if _, err := u.signer.Sign(req, bodyReader, signingService, u.region, time.Now()); err != nil {
		u.logger.Error("sign-request-error", err)
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.logger.Error("riakcs-error", err)
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		u.logger.Error("riakcs-error", err)
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		err := responseFault(resp.StatusCode, respBody)
		u.logger.Error("riakcs-error", err, lager.Data{"status": resp.StatusCode})
		return UserDetails{}, err
	}

	var details UserDetails
	if err := json.Unmarshal(respBody, &details); err != nil {
		err = errors.Wrap(err, "decoding riak cs user")
		u.logger.Error("riakcs-error", err)
		return UserDetails{}, fault.Wrap(fault.Other, err)
	}
	u.logger.Debug("create-user", lager.Data{"id": details.ID, "key-id": details.KeyID})

	return details, nil
}

// responseFault builds a fault from a non-success admin API response. Riak
// CS answers errors with an S3-style XML document.
func responseFault(statusCode int, body []byte) *fault.Fault {
	var errResp errorResponse
	if err := xml.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
		errResp.Code = fmt.Sprintf("HTTP%d", statusCode)
		errResp.Message = http.StatusText(statusCode)
	}

	switch {
	case statusCode == http.StatusConflict || errResp.Code == ErrUserAlreadyExists.Type:
		return fault.New(fault.Conflict, ErrUserAlreadyExists.Type, errResp.Message)
	case statusCode == http.StatusServiceUnavailable || errResp.Code == ErrServiceUnavailable.Type:
		return fault.New(fault.Unavailable, ErrServiceUnavailable.Type, errResp.Message)
	default:
		return fault.New(fault.Other, errResp.Code, errResp.Message)
	}
}
