package application

import (
	"errors"

	"github.com/bnema/feedlink/internal/ports"
)

type Dependencies struct {
	Settings      ports.Settings
	Transport     ports.Transport
	FeedCache     ports.FeedCache
	Prober        ports.Prober
	Clock         ports.Clock
	Telemetry     Telemetry
	PageSize      int
	DirectorySize int
}

// Client is the assembled access layer.
type Client struct {
	Store     *SessionStore
	Directory *UserDirectory
	Resolver  *Resolver
	Invoker   *Invoker
	Service   *Service
	Messenger *Messenger
}

func NewClient(deps Dependencies) (*Client, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings are required")
	}
	if deps.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if deps.FeedCache == nil {
		return nil, errors.New("feed cache is required")
	}

	directory, err := NewUserDirectory(deps.DirectorySize)
	if err != nil {
		return nil, err
	}

	store := NewSessionStore()
	selector := NewAddressSelector(deps.Prober)
	resolver := NewResolver(deps.Settings, deps.Transport, selector, directory, store, deps.Telemetry)
	invoker := NewInvoker(store, resolver, deps.Telemetry)
	service := NewService(invoker, deps.Transport, selector, directory, store, deps.FeedCache, deps.PageSize)
	messenger := NewMessenger(invoker, service, deps.Transport, store, deps.Clock, deps.Telemetry)

	return &Client{
		Store:     store,
		Directory: directory,
		Resolver:  resolver,
		Invoker:   invoker,
		Service:   service,
		Messenger: messenger,
	}, nil
}
