package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Development gets the
// console encoder, anything else gets production JSON.
func New(appEnv string) (*zap.Logger, error) {
	if appEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamed builds a logger carrying the service name on every entry.
func NewNamed(appEnv, service string) (*zap.Logger, error) {
	l, err := New(appEnv)
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}
