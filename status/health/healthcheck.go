package health

import (
	"context"
	"errors"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

type Indicator struct {
	Name  string
	Check func(ctx context.Context) error
}

func Redis(client redis.UniversalClient) *Indicator {
	return &Indicator{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// Unit checks the component health. It returns nil when the component
// does not report its health. A script without health_status is up.
func Unit(u *component.Unit) *Indicator {
	if _, ok := u.Component().(component.HealthChecker); !ok {
		return nil
	}
	return &Indicator{
		Name: "component",
		Check: func(ctx context.Context) error {
			_, err := u.Health(ctx)
			var e *errs.MicroserviceError
			if errors.As(err, &e) && e.Reason == errs.ReasonBadMethod {
				return nil
			}
			return err
		},
	}
}
