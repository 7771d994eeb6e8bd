package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name   string
	events *[]string
	fail   error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Start() error {
	if r.fail != nil {
		return r.fail
	}
	*r.events = append(*r.events, "start "+r.name)
	return nil
}

func (r *recorder) Stop(ctx context.Context) error {
	*r.events = append(*r.events, "stop "+r.name)
	return nil
}

func TestGroup(t *testing.T) {
	var events []string
	g := NewGroup(&recorder{name: "a", events: &events})
	g.Add(&recorder{name: "b", events: &events})
	assert.Equal(t, []string{"a", "b"}, g.Names())

	assert.NoError(t, g.Start(context.Background()))
	assert.NoError(t, g.Stop(context.Background()))
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)

	// stopped services are not stopped twice
	assert.NoError(t, g.Stop(context.Background()))
	assert.Len(t, events, 4)
}

func TestGroupStartFailure(t *testing.T) {
	var events []string
	g := NewGroup(
		&recorder{name: "a", events: &events},
		&recorder{name: "b", events: &events, fail: errors.New("address in use")},
		&recorder{name: "c", events: &events},
	)
	err := g.Start(context.Background())
	assert.EqualError(t, err, "failed to start b: address in use")
	assert.Equal(t, []string{"start a", "stop a"}, events)
}
