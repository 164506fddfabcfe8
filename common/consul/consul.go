package consul

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

type KVPair struct {
	Key   string
	Value []byte
}

type Client interface {
	RegisterService(serviceName, address string, port int) error
	DeregisterService(address string, port int) error
	// PutIfAbsent writes key only if it does not exist yet and reports
	// whether this call created it.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	List(ctx context.Context, prefix string) ([]KVPair, error)
	DeleteTree(ctx context.Context, prefix string) error
}

type client struct {
	cfg    *Config
	client *api.Client
}

func NewClient(cfg *Config) (Client, error) {
	cl, err := api.NewClient(cfg.toApiConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create consul client")
	}
	return &client{client: cl, cfg: cfg}, nil
}

func ServiceID(address string, port int) string {
	return fmt.Sprintf("%s:%d", address, port)
}

func (c *client) RegisterService(serviceName, address string, port int) error {
	registrationReq := &api.AgentServiceRegistration{
		ID:      ServiceID(address, port),
		Name:    serviceName,
		Address: address,
		Port:    port,
	}
	if c.cfg.Health != nil {
		registrationReq.Check = c.cfg.Health.toApiConfig(address, port)
	}
	if err := c.client.Agent().ServiceRegister(registrationReq); err != nil {
		return errors.Wrap(err, "register service")
	}
	return nil
}

func (c *client) DeregisterService(address string, port int) error {
	if err := c.client.Agent().ServiceDeregister(ServiceID(address, port)); err != nil {
		return errors.Wrap(err, "deregister service")
	}
	return nil
}

func (c *client) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	// ModifyIndex 0 turns CAS into create-only
	ok, _, err := c.client.KV().CAS(&api.KVPair{Key: key, Value: value}, (&api.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return false, errors.Wrapf(err, "cas %s", key)
	}
	return ok, nil
}

func (c *client) List(ctx context.Context, prefix string) ([]KVPair, error) {
	pairs, _, err := c.client.KV().List(prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", prefix)
	}
	out := make([]KVPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, KVPair{Key: p.Key, Value: p.Value})
	}
	return out, nil
}

func (c *client) DeleteTree(ctx context.Context, prefix string) error {
	if _, err := c.client.KV().DeleteTree(prefix, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "delete %s", prefix)
	}
	return nil
}
