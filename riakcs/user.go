package riakcs

import (
	"context"

	"github.com/cloud-gov/riak-cs-broker/fault"
)

// User provisions Riak CS users through the admin API.
type User interface {
	Create(ctx context.Context, name, email string) (UserDetails, error)
}

type UserDetails struct {
	ID          string `json:"id"`
	KeyID       string `json:"key_id"`
	KeySecret   string `json:"key_secret"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

var (
	ErrUserAlreadyExists  = fault.New(fault.Conflict, "UserAlreadyExists", "riak cs user already exists")
	ErrServiceUnavailable = fault.New(fault.Unavailable, "ServiceUnavailable", "riak cs is unavailable")
)
