// Package memory implementa el medio durable en memoria del proceso.
// Varias instancias de CustomerStore sobre el mismo Medium se comportan como varias
// vistas abiertas sobre el mismo almacenamiento: cada escritura avisa a todos los watchers.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
)

var (
	_ repository.SnapshotRepository = (*Medium)(nil)
	_ repository.ChangeWatcher      = (*Medium)(nil)
)

// Medium blob por clave con difusión de cambios.
type Medium struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	watchers map[string]map[chan struct{}]struct{}
}

// NewMedium construye un medio vacío.
func NewMedium() *Medium {
	return &Medium{
		blobs:    make(map[string][]byte),
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

// Read devuelve una copia del blob o (nil, nil) si la clave no existe.
func (m *Medium) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// Write reemplaza el blob y avisa a los watchers de la clave (incluido el del escritor).
func (m *Medium) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	for ch := range m.watchers[key] {
		// Canal con buffer 1: avisos pendientes se funden en uno.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Delete elimina la clave y avisa a los watchers, como si otro proceso borrara el registro.
func (m *Medium) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	for ch := range m.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch registra un watcher hasta que ctx termine.
func (m *Medium) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	if m.watchers[key] == nil {
		m.watchers[key] = make(map[chan struct{}]struct{})
	}
	m.watchers[key][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers[key], ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}
