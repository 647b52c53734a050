package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/application/analytics"
	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain/cycle"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/pkg/money"
)

// DefaultHeartbeat intervalo del comentario keep-alive del stream SSE.
const DefaultHeartbeat = 15 * time.Second

// CustomerHandler maneja las peticiones HTTP de clientes y sus pagos.
type CustomerHandler struct {
	store     *billing.CustomerStore
	receipts  *billing.ReceiptUseCase
	log       zerolog.Logger
	heartbeat time.Duration
}

// NewCustomerHandler construye el handler. receipts puede ser nil (sin PDF).
func NewCustomerHandler(store *billing.CustomerStore, receipts *billing.ReceiptUseCase, log zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{store: store, receipts: receipts, log: log, heartbeat: DefaultHeartbeat}
}

// List godoc
// @Summary      Listar clientes
// @Description  Búsqueda por nombre o id sin distinguir mayúsculas ni acentos.
// @Tags         customers
// @Produce      json
// @Param        q       query  string  false  "texto de búsqueda"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  dto.CustomerListResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de paginación inválidos"})
	}
	page.Normalize()

	found := analytics.Search(h.store.List(), page.Q)
	total := len(found)
	start, end := page.Window(total)

	items := make([]dto.CustomerResponse, 0, end-start)
	for _, cu := range found[start:end] {
		items = append(items, toCustomerResponse(cu, false))
	}
	return c.JSON(dto.CustomerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// Get godoc
// @Summary      Detalle de cliente
// @Tags         customers
// @Produce      json
// @Param        id   path  string  true  "id del cliente"
// @Success      200  {object}  dto.CustomerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	cu, err := h.store.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCustomerResponse(cu, true))
}

// Create godoc
// @Summary      Alta de cliente
// @Description  El cliente nace Pending, sin pagos, con vencimiento a un mes de la instalación.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCustomerRequest  true  "datos del cliente"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	installed, err := cycle.ParseDate(in.InstallationDate)
	if err != nil {
		return writeError(c, err)
	}
	cu, err := h.store.Create(c.UserContext(), entity.CustomerInput{
		Name:             in.Name,
		PhoneNumber:      in.PhoneNumber,
		Email:            in.Email,
		Address:          in.Address,
		Plan:             in.Plan,
		InstallationDate: installed,
		MonthlyFee:       in.MonthlyFee,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCustomerResponse(cu, true))
}

// Update godoc
// @Summary      Editar cliente
// @Description  Solo campos descriptivos, cuota y estado; el historial y el vencimiento no se editan.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "id del cliente"
// @Param        body  body  billing.CustomerPatch  true  "campos a cambiar"
// @Success      200   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [patch]
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var patch billing.CustomerPatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c)
	}
	if patch.Status != nil {
		st, err := entity.ParseCustomerStatus(string(*patch.Status))
		if err != nil {
			return writeError(c, err)
		}
		patch.Status = &st
	}
	cu, err := h.store.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCustomerResponse(cu, true))
}

// Delete godoc
// @Summary      Eliminar cliente
// @Tags         customers
// @Param        id   path  string  true  "id del cliente"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordPayment godoc
// @Summary      Registrar pago
// @Description  Sin amount se cobra la cuota mensual. Adelanta el vencimiento un mes y marca Paid.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "id del cliente"
// @Param        body  body  dto.RecordPaymentRequest  true  "monto y firma (data URL)"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/customers/{id}/payments [post]
func (h *CustomerHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	var amount decimal.Decimal
	if in.Amount != nil {
		amount = *in.Amount
	} else {
		cu, err := h.store.Get(id)
		if err != nil {
			return writeError(c, err)
		}
		amount = billing.SuggestedPaymentAmount(cu)
	}
	cu, err := h.store.RecordPayment(c.UserContext(), id, amount, in.Signature)
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("customer_id", id).Str("amount", amount.String()).Msg("pago registrado")
	return c.Status(fiber.StatusCreated).JSON(toCustomerResponse(cu, false))
}

// Receipt godoc
// @Summary      Kuitansi PDF de un pago
// @Tags         customers
// @Produce      application/pdf
// @Param        id   path  string  true  "id del cliente"
// @Param        pid  path  string  true  "id del pago"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id}/payments/{pid}/receipt [get]
func (h *CustomerHandler) Receipt(c *fiber.Ctx) error {
	if h.receipts == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "recibos PDF no configurados"})
	}
	pdf, filename, err := h.receipts.DownloadReceipt(c.UserContext(), c.Params("id"), c.Params("pid"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

// Events godoc
// @Summary      Stream de la colección de clientes (SSE)
// @Description  Envía la colección completa al conectar y tras cada cambio confirmado, propio o de otra instancia.
// @Tags         customers
// @Produce      text/event-stream
// @Success      200
// @Router       /api/customers/events [get]
func (h *CustomerHandler) Events(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	updates := make(chan []*entity.Customer, 1)
	unsubscribe := h.store.Subscribe(latestOnly(updates))
	initial := h.store.List()
	log := h.log.With().Str("remote", c.IP()).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		if err := writeSnapshotEvent(w, initial); err != nil {
			return
		}
		for {
			select {
			case snapshot := <-updates:
				if err := writeSnapshotEvent(w, snapshot); err != nil {
					log.Debug().Err(err).Msg("cliente SSE desconectado")
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					log.Debug().Err(err).Msg("cliente SSE desconectado")
					return
				}
			}
		}
	})
	return nil
}

// latestOnly adapta un canal de capacidad 1 a Listener sin bloquear al almacén:
// si el lector va atrasado se descarta la colección pendiente y queda la más reciente.
func latestOnly(ch chan []*entity.Customer) billing.Listener {
	return func(snapshot []*entity.Customer) {
		for {
			select {
			case ch <- snapshot:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func writeSnapshotEvent(w *bufio.Writer, customers []*entity.Customer) error {
	items := make([]dto.CustomerResponse, 0, len(customers))
	for _, cu := range customers {
		items = append(items, toCustomerResponse(cu, false))
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: customers\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// toCustomerResponse proyecta el cliente a su forma de presentación. Las firmas pesan;
// solo se incluyen en el detalle (withSignatures).
func toCustomerResponse(cu *entity.Customer, withSignatures bool) dto.CustomerResponse {
	ds := cycle.DeriveDisplayStatus(cu)
	history := cu.SortedHistory()
	payments := make([]dto.PaymentDTO, 0, len(history))
	for _, p := range history {
		pd := dto.PaymentDTO{
			ID:           p.ID,
			Date:         p.Date,
			Amount:       p.Amount,
			AmountLabel:  money.FormatIDR(p.Amount),
			HasSignature: strings.TrimSpace(p.Signature) != "",
		}
		if withSignatures {
			pd.Signature = p.Signature
		}
		payments = append(payments, pd)
	}
	return dto.CustomerResponse{
		ID:               cu.ID,
		Name:             cu.Name,
		PhoneNumber:      cu.PhoneNumber,
		Email:            cu.Email,
		Address:          cu.Address,
		Plan:             cu.Plan,
		InstallationDate: cu.InstallationDate,
		MonthlyFee:       cu.MonthlyFee,
		MonthlyFeeLabel:  money.FormatIDR(cu.MonthlyFee),
		Status:           string(cu.Status),
		DisplayStatus:    dto.DisplayStatusDTO{Label: ds.Label, Category: string(ds.Category)},
		NextPaymentDate:  cu.NextPaymentDate,
		PaymentHistory:   payments,
	}
}
