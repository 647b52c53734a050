package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/cycle"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
)

// Listener recibe la colección completa tras cada cambio confirmado.
//
// Tras una escritura local se invoca en la goroutine que escribió; tras un cambio externo,
// en la goroutine de escucha del almacén. Las entregas nunca se solapan y siempre llevan el
// estado vigente al momento de entregar: si dos cambios compiten, el listener puede ver solo
// el último, nunca uno anterior después de uno posterior.
// Cada llamada recibe su propia copia; el listener puede modificarla y llamar List o Get,
// pero no escrituras, Close ni la función de baja de forma síncrona.
type Listener func(snapshot []*entity.Customer)

// StoreConfig dependencias opcionales del almacén. Los campos vacíos toman valores por defecto.
type StoreConfig struct {
	Key     string // clave del blob; por defecto repository.DefaultSnapshotKey
	Logger  zerolog.Logger
	Metrics StoreMetrics
	Now     func() time.Time
	NewID   func() string
}

// CustomerPatch edición parcial de campos descriptivos. nil = sin cambio.
type CustomerPatch struct {
	Name        *string                `json:"name,omitempty"`
	PhoneNumber *string                `json:"phoneNumber,omitempty"`
	Email       *string                `json:"email,omitempty"`
	Address     *string                `json:"address,omitempty"`
	Plan        *string                `json:"plan,omitempty"`
	MonthlyFee  *decimal.Decimal       `json:"monthlyFee,omitempty"`
	Status      *entity.CustomerStatus `json:"status,omitempty"`
}

type subscription struct {
	fn     Listener
	active atomic.Bool
}

// CustomerStore es el único dueño de la colección durable de clientes.
//
// Toda escritura es todo-o-nada: se construye la colección nueva, se persiste como un
// reemplazo completo del blob y solo entonces se publica en memoria y se difunde a los
// suscriptores. Si el medio implementa repository.ChangeWatcher, los cambios hechos por
// otra instancia sobre el mismo medio provocan una recarga completa (gana el último escritor).
type CustomerStore struct {
	repo     repository.SnapshotRepository
	key      string
	log      zerolog.Logger
	metrics  StoreMetrics
	newID    func() string
	recorder *PaymentRecorder

	mu        sync.Mutex
	open      bool
	customers []*entity.Customer
	lastBlob  []byte
	subs      []*subscription
	version   uint64 // sube con cada cambio confirmado

	// deliverMu serializa las entregas a los listeners. Orden de locks: deliverMu antes que mu.
	deliverMu sync.Mutex
	delivered uint64

	stopWatch context.CancelFunc
	watchWG   sync.WaitGroup
}

// NewCustomerStore construye el almacén; no lee el medio hasta Open.
func NewCustomerStore(repo repository.SnapshotRepository, cfg StoreConfig) *CustomerStore {
	if cfg.Key == "" {
		cfg.Key = repository.DefaultSnapshotKey
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	return &CustomerStore{
		repo:     repo,
		key:      cfg.Key,
		log:      cfg.Logger.With().Str("component", "customer_store").Str("key", cfg.Key).Logger(),
		metrics:  cfg.Metrics,
		newID:    cfg.NewID,
		recorder: NewPaymentRecorder(cfg.Now, cfg.NewID),
	}
}

// Open carga la colección y, si el medio lo soporta, empieza a escuchar cambios externos.
// Llamar Open sobre un almacén abierto no hace nada.
func (s *CustomerStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}
	data, customers, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.customers = customers
	s.lastBlob = data
	s.open = true
	s.metrics.SetCustomers(len(customers))

	if w, ok := s.repo.(repository.ChangeWatcher); ok {
		watchCtx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(watchCtx, s.key)
		if err != nil {
			cancel()
			s.open = false
			return &domain.PersistenceError{Op: "watch", Err: err}
		}
		s.stopWatch = cancel
		s.watchWG.Add(1)
		go s.watchLoop(watchCtx, changes)
	}
	s.log.Info().Int("customers", len(customers)).Msg("almacén abierto")
	return nil
}

// Close detiene la escucha de cambios y descarta los suscriptores.
// Tras Close ningún listener vuelve a ser invocado.
func (s *CustomerStore) Close() error {
	s.deliverMu.Lock()
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		s.deliverMu.Unlock()
		return nil
	}
	s.open = false
	for _, sub := range s.subs {
		sub.active.Store(false)
	}
	s.subs = nil
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	s.deliverMu.Unlock()

	if stop != nil {
		stop()
	}
	s.watchWG.Wait()
	s.log.Info().Msg("almacén cerrado")
	return nil
}

func (s *CustomerStore) watchLoop(ctx context.Context, changes <-chan struct{}) {
	defer s.watchWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.Reload(ctx); err != nil && !errors.Is(err, domain.ErrClosed) {
				s.log.Error().Err(err).Msg("recarga tras cambio externo")
			}
		}
	}
}

// List devuelve una copia de la colección actual en orden de inserción.
func (s *CustomerStore) List() []*entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.customers)
}

// Get devuelve una copia del cliente o *domain.NotFoundError.
func (s *CustomerStore) Get(id string) (*entity.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.customers, id)
	if i < 0 {
		return nil, &domain.NotFoundError{ID: id}
	}
	return s.customers[i].Clone(), nil
}

// Subscribe registra un listener. La función devuelta lo da de baja; cuando retorna no hay
// ninguna llamada al listener en curso ni se inicia otra. Es seguro llamarla varias veces.
func (s *CustomerStore) Subscribe(fn Listener) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		s.deliverMu.Lock()
		defer s.deliverMu.Unlock()
		s.mu.Lock()
		defer s.mu.Unlock()
		sub.active.Store(false)
		for i, other := range s.subs {
			if other == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// Create valida la entrada, asigna id y primera fecha de cobro, persiste y difunde.
func (s *CustomerStore) Create(ctx context.Context, in entity.CustomerInput) (*entity.Customer, error) {
	return s.mutate(ctx, "create", func(cur []*entity.Customer) ([]*entity.Customer, *entity.Customer, error) {
		if in.InstallationDate.IsZero() {
			return nil, nil, domain.NewValidationError("installationDate", "es obligatoria")
		}
		first, err := cycle.FirstPaymentDate(in.InstallationDate)
		if err != nil {
			return nil, nil, err
		}
		id := s.newID()
		for indexOf(cur, id) >= 0 {
			id = s.newID()
		}
		c, err := entity.NewCustomer(id, in, first)
		if err != nil {
			return nil, nil, err
		}
		next := make([]*entity.Customer, 0, len(cur)+1)
		next = append(next, cur...)
		next = append(next, c)
		return next, c, nil
	})
}

// Update aplica una edición parcial de campos descriptivos (incluido el estado).
func (s *CustomerStore) Update(ctx context.Context, id string, patch CustomerPatch) (*entity.Customer, error) {
	return s.mutate(ctx, "update", func(cur []*entity.Customer) ([]*entity.Customer, *entity.Customer, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, nil, &domain.NotFoundError{ID: id}
		}
		c := cur[i].Clone()
		applyPatch(c, patch)
		if err := c.Validate(); err != nil {
			return nil, nil, err
		}
		return replaceAt(cur, i, c), c, nil
	})
}

// Replace sustituye el registro completo (p. ej. el resultado de PaymentRecorder).
// Se rechaza si cambia la fecha de instalación, si el historial pierde entradas o si
// algún pago existente cambia en id, fecha, monto o firma.
func (s *CustomerStore) Replace(ctx context.Context, c *entity.Customer) (*entity.Customer, error) {
	if c == nil {
		return nil, domain.NewValidationError("customer", "es obligatorio")
	}
	return s.mutate(ctx, "replace", func(cur []*entity.Customer) ([]*entity.Customer, *entity.Customer, error) {
		i := indexOf(cur, c.ID)
		if i < 0 {
			return nil, nil, &domain.NotFoundError{ID: c.ID}
		}
		if err := checkReplacement(cur[i], c); err != nil {
			return nil, nil, err
		}
		nc := c.Clone()
		if err := nc.Validate(); err != nil {
			return nil, nil, err
		}
		return replaceAt(cur, i, nc), nc, nil
	})
}

// RecordPayment registra un pago sobre el cliente id como una única escritura atómica.
// Con monto no positivo o firma vacía devuelve *domain.InvalidPaymentError y no escribe nada.
func (s *CustomerStore) RecordPayment(ctx context.Context, id string, amount decimal.Decimal, signature string) (*entity.Customer, error) {
	return s.mutate(ctx, "record_payment", func(cur []*entity.Customer) ([]*entity.Customer, *entity.Customer, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, nil, &domain.NotFoundError{ID: id}
		}
		updated, err := s.recorder.RecordPayment(cur[i], amount, signature)
		if err != nil {
			return nil, nil, err
		}
		return replaceAt(cur, i, updated), updated, nil
	})
}

// Delete elimina el cliente junto con todo su historial. Un id ausente es *domain.NotFoundError.
func (s *CustomerStore) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "delete", func(cur []*entity.Customer) ([]*entity.Customer, *entity.Customer, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, nil, &domain.NotFoundError{ID: id}
		}
		next := make([]*entity.Customer, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		return next, nil, nil
	})
	return err
}

// Reload vuelve a leer el medio completo. Si el contenido difiere de lo último leído o
// escrito por esta instancia, reemplaza la colección y difunde; si no, no hace nada.
func (s *CustomerStore) Reload(ctx context.Context) error {
	start := time.Now()
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	data, err := s.repo.Read(ctx, s.key)
	if err != nil {
		s.mu.Unlock()
		err = &domain.PersistenceError{Op: "read", Err: err}
		s.metrics.ObserveOperation("reload", err, time.Since(start))
		return err
	}
	if bytes.Equal(data, s.lastBlob) {
		s.mu.Unlock()
		s.metrics.ObserveExternalChange(false)
		return nil
	}
	customers, err := s.decode(data)
	if err != nil {
		s.mu.Unlock()
		s.metrics.ObserveOperation("reload", err, time.Since(start))
		return err
	}
	s.customers = customers
	s.lastBlob = data
	s.version++
	s.mu.Unlock()

	s.metrics.ObserveOperation("reload", nil, time.Since(start))
	s.metrics.ObserveExternalChange(true)
	s.metrics.SetCustomers(len(customers))
	s.log.Debug().Int("customers", len(customers)).Msg("colección recargada desde el medio")
	s.broadcast()
	return nil
}

// mutate serializa una escritura: fn construye la colección nueva sin tocar la actual.
// Solo si la persistencia tiene éxito se publica el resultado.
func (s *CustomerStore) mutate(
	ctx context.Context,
	op string,
	fn func(cur []*entity.Customer) (next []*entity.Customer, result *entity.Customer, err error),
) (*entity.Customer, error) {
	start := time.Now()
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, domain.ErrClosed
	}
	next, result, err := fn(s.customers)
	if err == nil {
		err = s.persist(ctx, next)
	}
	if err != nil {
		s.mu.Unlock()
		s.metrics.ObserveOperation(op, err, time.Since(start))
		s.log.Warn().Err(err).Str("op", op).Msg("operación rechazada")
		return nil, err
	}
	s.customers = next
	s.version++
	s.mu.Unlock()

	s.metrics.ObserveOperation(op, nil, time.Since(start))
	s.metrics.SetCustomers(len(next))
	ev := s.log.Debug().Str("op", op).Int("customers", len(next))
	if result != nil {
		ev = ev.Str("customer_id", result.ID)
	}
	ev.Msg("colección actualizada")

	s.broadcast()
	return result.Clone(), nil
}

// persist escribe la colección completa. Debe llamarse con s.mu tomado.
func (s *CustomerStore) persist(ctx context.Context, customers []*entity.Customer) error {
	data, err := encodeSnapshot(customers)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.repo.Write(ctx, s.key, data); err != nil {
		return &domain.PersistenceError{Op: "write", Err: err}
	}
	s.lastBlob = data
	return nil
}

func (s *CustomerStore) load(ctx context.Context) ([]byte, []*entity.Customer, error) {
	data, err := s.repo.Read(ctx, s.key)
	if err != nil {
		return nil, nil, &domain.PersistenceError{Op: "read", Err: err}
	}
	customers, err := s.decode(data)
	if err != nil {
		return nil, nil, err
	}
	return data, customers, nil
}

// decode interpreta el blob; clave ausente o vacía equivale a colección vacía.
// Los registros que no pasan Validate se conservan (no se pierde historial) y se registran.
func (s *CustomerStore) decode(data []byte) ([]*entity.Customer, error) {
	customers, err := decodeSnapshot(data)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "decode", Err: err}
	}
	for _, c := range customers {
		if verr := c.Validate(); verr != nil {
			s.log.Warn().Err(verr).Str("customer_id", c.ID).Msg("registro persistido no cumple el modelo")
		}
	}
	return customers, nil
}

// activeSubs copia la lista de suscriptores. Debe llamarse con s.mu tomado.
func (s *CustomerStore) activeSubs() []*subscription {
	out := make([]*subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

// broadcast entrega el estado vigente a los suscriptores. Si otra entrega ya llevó esta
// versión o una posterior, no hace nada: los listeners nunca retroceden.
func (s *CustomerStore) broadcast() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	version, snapshot, subs := s.version, s.customers, s.activeSubs()
	s.mu.Unlock()

	if version <= s.delivered {
		return
	}
	s.delivered = version
	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		sub.fn(cloneAll(snapshot))
	}
}

// encodeSnapshot serializa la colección en el formato persistido (arreglo JSON, fechas RFC 3339).
func encodeSnapshot(customers []*entity.Customer) ([]byte, error) {
	if customers == nil {
		customers = []*entity.Customer{}
	}
	return json.Marshal(customers)
}

// decodeSnapshot inverso de encodeSnapshot; normaliza historiales nulos a vacíos.
func decodeSnapshot(data []byte) ([]*entity.Customer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*entity.Customer{}, nil
	}
	var customers []*entity.Customer
	if err := json.Unmarshal(data, &customers); err != nil {
		return nil, err
	}
	out := make([]*entity.Customer, 0, len(customers))
	seen := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if c == nil {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("id de cliente repetido: %s", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.PaymentHistory == nil {
			c.PaymentHistory = []entity.Payment{}
		}
		out = append(out, c)
	}
	return out, nil
}

func checkReplacement(old, nc *entity.Customer) error {
	if !old.InstallationDate.Equal(nc.InstallationDate) {
		return domain.NewValidationError("installationDate", "es inmutable")
	}
	if len(nc.PaymentHistory) < len(old.PaymentHistory) {
		return domain.NewValidationError("paymentHistory", "no puede perder pagos")
	}
	for i := range old.PaymentHistory {
		if !samePayment(old.PaymentHistory[i], nc.PaymentHistory[i]) {
			return domain.NewValidationError("paymentHistory",
				fmt.Sprintf("el pago %s es inmutable", old.PaymentHistory[i].ID))
		}
	}
	return nil
}

func samePayment(a, b entity.Payment) bool {
	return a.ID == b.ID &&
		a.Date.Equal(b.Date) &&
		a.Amount.Equal(b.Amount) &&
		a.Signature == b.Signature
}

func applyPatch(c *entity.Customer, p CustomerPatch) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	if p.Address != nil {
		c.Address = strings.TrimSpace(*p.Address)
	}
	if p.Plan != nil {
		c.Plan = strings.TrimSpace(*p.Plan)
	}
	if p.MonthlyFee != nil {
		c.MonthlyFee = *p.MonthlyFee
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

func indexOf(customers []*entity.Customer, id string) int {
	for i, c := range customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func replaceAt(cur []*entity.Customer, i int, c *entity.Customer) []*entity.Customer {
	next := make([]*entity.Customer, len(cur))
	copy(next, cur)
	next[i] = c
	return next
}

func cloneAll(customers []*entity.Customer) []*entity.Customer {
	out := make([]*entity.Customer, len(customers))
	for i, c := range customers {
		out[i] = c.Clone()
	}
	return out
}
