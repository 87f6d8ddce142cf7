package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/markermove/internal/adapters/postgres"
	"github.com/samirrijal/markermove/internal/adapters/valkey"
	"github.com/samirrijal/markermove/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Fixes    *usecases.FixService
	States   *usecases.StateService
	Animator *usecases.Animator
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
