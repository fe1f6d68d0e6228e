package fakes

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"

	"github.com/cloud-gov/riak-cs-broker/fault"
	"github.com/cloud-gov/riak-cs-broker/riakcs"
)

type FakeUser struct {
	mu      sync.Mutex
	users   map[string]riakcs.UserDetails
	err     error
	created []riakcs.UserDetails
}

func NewFakeUser() *FakeUser {
	return &FakeUser{
		users: map[string]riakcs.UserDetails{},
	}
}

// Fail makes every later Create return err. A nil err clears the failure.
func (f *FakeUser) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Created returns every user provisioned so far.
func (f *FakeUser) Created() []riakcs.UserDetails {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]riakcs.UserDetails(nil), f.created...)
}

func (f *FakeUser) Create(ctx context.Context, name, email string) (riakcs.UserDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return riakcs.UserDetails{}, f.err
	}
	if _, ok := f.users[email]; ok {
		return riakcs.UserDetails{}, fault.New(fault.Conflict, riakcs.ErrUserAlreadyExists.Type, "The specified email address has already been registered. Email addresses must be unique.")
	}

	user := riakcs.UserDetails{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		KeyID:       strings.ToUpper(password.MustGenerate(20, 6, 0, true, true)),
		KeySecret:   password.MustGenerate(40, 10, 0, false, true),
		Name:        name,
		Email:       email,
		DisplayName: name,
		Status:      "enabled",
	}
	f.users[email] = user
	f.created = append(f.created, user)
	return user, nil
}
