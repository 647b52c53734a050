// Package filestore implementa el medio durable sobre un directorio local:
// un archivo JSON por clave, escritura atómica (temporal + rename) y aviso de
// cambios externos con fsnotify.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
)

var (
	_ repository.SnapshotRepository = (*Medium)(nil)
	_ repository.ChangeWatcher      = (*Medium)(nil)
)

// debounceDelay ventana en la que varios eventos del mismo archivo se funden en un aviso.
const debounceDelay = 50 * time.Millisecond

// Medium blob por clave en rootDir/<clave>.json.
type Medium struct {
	rootDir string
	log     zerolog.Logger
}

// NewMedium crea el directorio si no existe.
func NewMedium(rootDir string, log zerolog.Logger) (*Medium, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: crear directorio: %w", err)
	}
	return &Medium{rootDir: rootDir, log: log.With().Str("component", "filestore").Logger()}, nil
}

// Path ruta del archivo que guarda la clave.
func (m *Medium) Path(key string) string {
	return filepath.Join(m.rootDir, sanitizeKey(key)+".json")
}

// Read devuelve el contenido o (nil, nil) si el archivo no existe.
func (m *Medium) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(m.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("filestore: leer %s: %w", key, err)
	}
	return data, nil
}

// Write reemplaza el archivo de forma atómica: quien lea ve el blob anterior o el nuevo, nunca uno parcial.
func (m *Medium) Write(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(m.rootDir, "."+sanitizeKey(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: crear temporal: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: escribir temporal: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: cerrar temporal: %w", err)
	}
	if err := os.Rename(tmpName, m.Path(key)); err != nil {
		return fmt.Errorf("filestore: reemplazar %s: %w", key, err)
	}
	return nil
}

// Watch observa el directorio y avisa cuando el archivo de la clave se crea, cambia o desaparece.
// Se vigila el directorio y no el archivo porque el rename reemplaza el inode.
func (m *Medium) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filestore: crear watcher: %w", err)
	}
	if err := fsw.Add(m.rootDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("filestore: vigilar %s: %w", m.rootDir, err)
	}

	target := filepath.Clean(m.Path(key))
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer fsw.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				m.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("cambio detectado")
				if debounce == nil {
					debounce = time.NewTimer(debounceDelay)
				} else {
					debounce.Reset(debounceDelay)
				}
				fire = debounce.C

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				m.log.Error().Err(err).Msg("error del watcher")

			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// sanitizeKey evita que una clave escape del directorio raíz.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(key)
}
