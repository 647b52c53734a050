// Package redisstore implementa el medio durable sobre Redis: GET/SET del blob y un
// canal pub/sub por clave para avisar a las demás instancias de cada escritura.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
)

var (
	_ repository.SnapshotRepository = (*Medium)(nil)
	_ repository.ChangeWatcher      = (*Medium)(nil)
)

// Medium blob por clave en Redis.
type Medium struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewMedium conecta con redisURL (redis://host:port/db) y verifica la conexión.
func NewMedium(redisURL string, log zerolog.Logger) (*Medium, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: URL inválida: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return &Medium{client: client, log: log.With().Str("component", "redisstore").Logger()}, nil
}

// Close cierra el cliente.
func (m *Medium) Close() error {
	return m.client.Close()
}

func blobKey(key string) string    { return "snapshot:" + key }
func channelName(key string) string { return "snapshot-changed:" + key }

// Read devuelve el blob o (nil, nil) si la clave no existe.
func (m *Medium) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := m.client.Get(ctx, blobKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get: %w", err)
	}
	return data, nil
}

// Write reemplaza el blob y publica el aviso en la misma transacción MULTI/EXEC.
func (m *Medium) Write(ctx context.Context, key string, data []byte) error {
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, blobKey(key), data, 0)
		pipe.Publish(ctx, channelName(key), "1")
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: set: %w", err)
	}
	return nil
}

// Watch se suscribe al canal de la clave hasta que ctx termine.
func (m *Medium) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	sub := m.client.Subscribe(ctx, channelName(key))
	// Esperar la confirmación para no perder avisos publicados justo después.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redisstore: subscribe: %w", err)
	}

	out := make(chan struct{}, 1)
	msgs := sub.Channel()
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	m.log.Debug().Str("channel", channelName(key)).Msg("suscrito a cambios")
	return out, nil
}
