package services

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Group starts services in the order they were added and stops them in
// reverse order.
type Group struct {
	services []Service
	started  []Service
	log      *zap.SugaredLogger
}

func NewGroup(services ...Service) *Group {
	return &Group{
		services: services,
		log:      zap.S(),
	}
}

func (g *Group) Add(s Service) {
	g.services = append(g.services, s)
}

func (g *Group) Names() []string {
	names := make([]string, 0, len(g.services))
	for _, s := range g.services {
		names = append(names, s.Name())
	}
	return names
}

// Start starts every service. When one fails the services started before it
// are stopped.
func (g *Group) Start(ctx context.Context) error {
	for _, s := range g.services {
		if err := s.Start(); err != nil {
			err = fmt.Errorf("failed to start %s: %w", s.Name(), err)
			return multierr.Append(err, g.Stop(ctx))
		}
		g.log.Debugf("started %s", s.Name())
		g.started = append(g.started, s)
	}
	return nil
}

func (g *Group) Stop(ctx context.Context) error {
	var err error
	for i := len(g.started) - 1; i >= 0; i-- {
		s := g.started[i]
		if e := s.Stop(ctx); e != nil {
			g.log.Errorf("failed to stop %s: %v", s.Name(), e)
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.Name(), e))
		}
	}
	g.started = nil
	return err
}
