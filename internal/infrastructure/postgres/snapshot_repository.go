package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
)

var (
	_ repository.SnapshotRepository = (*SnapshotRepo)(nil)
	_ repository.ChangeWatcher      = (*SnapshotRepo)(nil)
)

// NotifyChannel canal LISTEN/NOTIFY; el payload es la clave modificada.
const NotifyChannel = "app_snapshot_changed"

// La columna value es json (no jsonb) para conservar los bytes tal como se escribieron:
// el almacén compara el blob leído con el último escrito para ignorar su propio eco.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS app_snapshots (
    key            TEXT PRIMARY KEY,
    value          JSON        NOT NULL,
    customer_count INTEGER     NOT NULL DEFAULT 0,
    total_fees     NUMERIC(18,2) NOT NULL DEFAULT 0,
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SnapshotSummary columnas de auditoría calculadas en cada escritura.
type SnapshotSummary struct {
	Key           string
	CustomerCount int
	TotalFees     decimal.Decimal
	UpdatedAt     time.Time
}

// SnapshotRepo implementación de SnapshotRepository sobre la tabla app_snapshots.
type SnapshotRepo struct {
	pool *pgxpool.Pool
	tx   *TxRunner
	log  zerolog.Logger
}

// NewSnapshotRepository construye el adaptador.
func NewSnapshotRepository(pool *pgxpool.Pool, log zerolog.Logger) *SnapshotRepo {
	return &SnapshotRepo{
		pool: pool,
		tx:   NewTxRunner(pool),
		log:  log.With().Str("component", "postgres_snapshots").Logger(),
	}
}

// EnsureSchema crea la tabla si no existe.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("crear tabla app_snapshots: %w", err)
	}
	return nil
}

// Read devuelve el blob o (nil, nil) si la clave no existe.
func (r *SnapshotRepo) Read(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT value::text FROM app_snapshots WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer snapshot: %w", err)
	}
	return raw, nil
}

// Write hace upsert del blob y emite pg_notify en la misma transacción:
// los demás procesos reciben el aviso solo si el commit se completa.
func (r *SnapshotRepo) Write(ctx context.Context, key string, data []byte) error {
	count, total, err := summarize(data)
	if err != nil {
		return fmt.Errorf("resumen del snapshot: %w", err)
	}
	return r.tx.Run(ctx, func(q Querier) error {
		const upsert = `
			INSERT INTO app_snapshots (key, value, customer_count, total_fees, updated_at)
			VALUES ($1, $2::json, $3, $4, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value,
			    customer_count = EXCLUDED.customer_count,
			    total_fees = EXCLUDED.total_fees,
			    updated_at = EXCLUDED.updated_at`
		if _, err := q.Exec(ctx, upsert, key, string(data), count, total); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		if _, err := q.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, key); err != nil {
			return fmt.Errorf("notify snapshot: %w", err)
		}
		return nil
	})
}

// Summary devuelve las columnas de auditoría de la clave, o nil si no existe.
func (r *SnapshotRepo) Summary(ctx context.Context, key string) (*SnapshotSummary, error) {
	s := SnapshotSummary{Key: key}
	err := r.pool.QueryRow(ctx,
		`SELECT customer_count, total_fees, updated_at FROM app_snapshots WHERE key = $1`, key,
	).Scan(&s.CustomerCount, &s.TotalFees, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resumen snapshot: %w", err)
	}
	return &s, nil
}

// Watch toma una conexión del pool, ejecuta LISTEN y avisa por cada NOTIFY de la clave.
// La conexión se devuelve al pool cuando ctx termina.
func (r *SnapshotRepo) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire para LISTEN: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("LISTEN: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		// Cancelar WaitForNotification deja la conexión inutilizable; el pool la descarta al liberarla.
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.log.Error().Err(err).Msg("LISTEN interrumpido")
				}
				return
			}
			if n.Payload != key {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

// summarize extrae del blob el número de clientes y la suma de cuotas mensuales.
func summarize(data []byte) (int, decimal.Decimal, error) {
	var rows []struct {
		MonthlyFee decimal.Decimal `json:"monthlyFee"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.MonthlyFee)
	}
	return len(rows), total, nil
}
