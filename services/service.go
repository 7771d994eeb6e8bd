package services

import "context"

// Service is a long running part of the application started and stopped by
// a Group.
type Service interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}
