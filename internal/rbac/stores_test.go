package rbac

import (
	"context"
	"sync"
	"sync/atomic"
)

type stubStores struct {
	mu          sync.Mutex
	roles       map[string]*Role
	policies    map[string]*Policy
	roleErr     error
	policyErr   error
	roleCalls   atomic.Int64
	policyCalls atomic.Int64
}

func newStubStores() *stubStores {
	return &stubStores{roles: map[string]*Role{}, policies: map[string]*Policy{}}
}

func stubKey(customer, name string) string {
	return customer + "/" + name
}

func (s *stubStores) addRole(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[stubKey(role.Customer, role.Name)] = &role
}

func (s *stubStores) addPolicy(policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[stubKey(policy.Customer, policy.Name)] = &policy
}

func (s *stubStores) LookupRole(ctx context.Context, customer, name string) (*Role, error) {
	s.roleCalls.Add(1)
	if s.roleErr != nil {
		return nil, s.roleErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[stubKey(customer, name)]
	if !ok {
		return nil, nil
	}
	copied := *role
	return &copied, nil
}

func (s *stubStores) LookupPolicy(ctx context.Context, customer, name string) (*Policy, error) {
	s.policyCalls.Add(1)
	if s.policyErr != nil {
		return nil, s.policyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[stubKey(customer, name)]
	if !ok {
		return nil, nil
	}
	copied := *policy
	return &copied, nil
}

func (s *stubStores) calls() int64 {
	return s.roleCalls.Load() + s.policyCalls.Load()
}
