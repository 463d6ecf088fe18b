// Command dexmigrate rewrites MangaDex entries in Tachiyomi backups to the
// new MangaDex ids.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/codec"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/resolver"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/cli"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)
	codecs := codec.NewDefaultRegistry()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings: settingsService,
		Migrators: func(rs domain.ResolverSettings) (driving.Migrator, io.Closer, error) {
			h, err := resolver.Open(rs)
			if err != nil {
				return nil, nil, err
			}
			return services.NewMigrationService(codecs, h.Resolver, settingsService), h, nil
		},
		Mappings: func(rs domain.ResolverSettings) (driving.MappingService, io.Closer, error) {
			h, err := resolver.OpenWithStore(rs)
			if err != nil {
				return nil, nil, err
			}
			return services.NewMappingService(h.Store, h.Resolver), h, nil
		},
	})

	return cli.Execute(ctx)
}
