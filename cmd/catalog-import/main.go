package main

import (
	"context"
	"flag"
	"time"

	"spadesk/internal/catalog"
	"spadesk/internal/catalog/repository"
	"spadesk/internal/catalog/service"
	"spadesk/internal/catalog/validator"
	"spadesk/pkg/config"
)

const JobName = "catalog-import"

func main() {
	path := flag.String("file", "configs/catalog.yaml", "catalog YAML file")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	cfg := config.Load(JobName)

	services, err := catalog.LoadFile(*path)
	if err != nil {
		cfg.Log.Fatal("Failed to read catalog", "file", *path, "error", err)
	}
	cfg.Log.Info("Catalog loaded", "file", *path, "services", len(services))

	serviceValidator := validator.NewServiceValidator(cfg.Log)
	if *dryRun {
		for _, s := range services {
			if err := serviceValidator.Validate(s); err != nil {
				cfg.Log.Fatal("Invalid catalog entry", "code", s.Code, "error", err)
			}
		}
		cfg.Log.Info("Dry run passed, nothing written")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	catalogService := service.NewCatalogService(repository.NewMongoServiceRepository(cfg), serviceValidator, cfg)
	result, err := catalogService.Import(ctx, services)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Catalog import failed", "error", err)
	}
	cfg.Log.Info("Catalog import completed", "created", result.Created, "updated", result.Updated)
}
