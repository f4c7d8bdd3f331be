//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/robosim/internal/config"
	"github.com/zeusync/robosim/internal/server"
)

// InitializeServer builds the simulator from cfg. The command socket is
// bound here, so a second instance fails with protocol.ErrAddressInUse.
func InitializeServer(cfg config.Config) (*server.Server, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
