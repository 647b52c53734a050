// seed carga clientes en el medio configurado (STORAGE_DRIVER) a partir de un CSV
// exportado de la hoja de cálculo anterior, o con datos de demostración si no se indica archivo.
//
// Uso: go run ./cmd/seed [-latin1] [ruta/pelanggan.csv]
// Los meses ya pagados (bulan_lunas) se registran como pagos importados.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/filestore"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/redisstore"
	"github.com/jhoicas/Tagihan-api/pkg/config"
	"github.com/jhoicas/Tagihan-api/pkg/logger"
)

// importedSignature prueba de pago de los meses migrados (no hubo firma en el sistema anterior).
const importedSignature = "data:text/plain,importado"

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name + "-seed"})

	rows := demoRows()
	if path := flag.Arg(0); path != "" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
			os.Exit(1)
		}
		rows, err = readRows(f, *latin1)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	repo, closeRepo, err := openRepo(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir medio %s: %v\n", cfg.Storage.Driver, err)
		os.Exit(1)
	}
	defer closeRepo()

	store := billing.NewCustomerStore(repo, billing.StoreConfig{Key: cfg.Storage.Key, Logger: log.Zerolog()})
	if err := store.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Abrir almacén: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	existing := make(map[string]struct{})
	for _, c := range store.List() {
		existing[strings.ToLower(c.Name)+"|"+c.PhoneNumber] = struct{}{}
	}

	created, skipped, payments := 0, 0, 0
	for _, row := range rows {
		k := strings.ToLower(strings.TrimSpace(row.input.Name)) + "|" + strings.TrimSpace(row.input.PhoneNumber)
		if _, dup := existing[k]; dup {
			skipped++
			continue
		}
		c, err := store.Create(ctx, row.input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Línea %d: %v\n", row.line, err)
			os.Exit(1)
		}
		for i := 0; i < row.paidMonths; i++ {
			if _, err := store.RecordPayment(ctx, c.ID, c.MonthlyFee, importedSignature); err != nil {
				fmt.Fprintf(os.Stderr, "Línea %d, pago %d: %v\n", row.line, i+1, err)
				os.Exit(1)
			}
			payments++
		}
		existing[k] = struct{}{}
		created++
	}

	fmt.Printf("Medio %s (%s): %d clientes creados, %d omitidos por duplicado, %d pagos importados\n",
		cfg.Storage.Driver, cfg.Storage.Key, created, skipped, payments)
}

func openRepo(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.SnapshotRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name+"-seed")
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewSnapshotRepository(pool, log.Zerolog())
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	case config.StorageRedis:
		m, err := redisstore.NewMedium(cfg.Redis.URL, log.Zerolog())
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	case config.StorageMemory:
		return nil, nil, fmt.Errorf("el medio memory no sobrevive al proceso; use file, postgres o redis")
	default:
		m, err := filestore.NewMedium(cfg.Storage.Dir, log.Zerolog())
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	}
}

func demoRows() []seedRow {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	return []seedRow{
		{input: entity.CustomerInput{
			Name: "Budi Santoso", PhoneNumber: "081234567890", Address: "Jl. Merdeka No. 1",
			Plan: "10 Mbps", InstallationDate: day(2024, 1, 15), MonthlyFee: decimal.NewFromInt(150000),
		}, paidMonths: 2},
		{input: entity.CustomerInput{
			Name: "Siti Rahmawati", PhoneNumber: "081298765432", Email: "siti@example.com", Address: "Gg. Melati 7",
			Plan: "20 Mbps", InstallationDate: day(2024, 1, 31), MonthlyFee: decimal.NewFromInt(250000),
		}, paidMonths: 1},
		{input: entity.CustomerInput{
			Name: "Agus Wijaya", PhoneNumber: "085711223344", Address: "Perum Griya Asri B-12",
			Plan: "10 Mbps", InstallationDate: day(2024, 3, 3), MonthlyFee: decimal.NewFromInt(150000),
		}},
	}
}
