package repository

import "context"

// DefaultSnapshotKey nombre del registro que guarda la colección de clientes.
const DefaultSnapshotKey = "elanet_customers_v2"

// SnapshotRepository define el puerto del medio durable: un blob por clave,
// reemplazado completo en cada escritura. Read devuelve (nil, nil) si la clave no existe.
type SnapshotRepository interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// ChangeWatcher puerto opcional del medio: avisa cuando la clave cambió, incluso desde
// otro proceso. Las señales no llevan contenido; el receptor vuelve a leer la clave.
// El canal se cierra cuando ctx termina o el medio se cierra.
type ChangeWatcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}
