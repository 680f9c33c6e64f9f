package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// BatchHandler lotes de compra: creación, precios, recepción y cierre.
type BatchHandler struct {
	batches *inventory.BatchLifecycleUseCase
	receive *inventory.ReceiveUnitUseCase
	lookup  *inventory.LookupUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(batches *inventory.BatchLifecycleUseCase, receive *inventory.ReceiveUnitUseCase, lookup *inventory.LookupUseCase) *BatchHandler {
	return &BatchHandler{batches: batches, receive: receive, lookup: lookup}
}

// Create godoc
// @Summary      Crear lote de compra
// @Description  El lote nace en awaiting_prices con número PO-YYYYMM-NNNN.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "Proveedor, bodega e ítems"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.batches.CreateBatchFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar lotes
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Estado del lote"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        limit        query  int     false  "Límite"  default(50)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.BatchListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, fmt.Errorf("%w: paginación inválida", domain.ErrInvalidInput))
	}
	page.DefaultPage()
	filter := entity.BatchFilter{
		Status:     entity.BatchStatus(c.Query("status")),
		SupplierID: c.Query("supplier_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	list, err := h.batches.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, inventory.ToBatchResponse(b, nil))
	}
	return c.JSON(dto.BatchListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Stats godoc
// @Summary      Lotes por estado
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /api/batches/stats [get]
func (h *BatchHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.batches.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make(map[string]int, len(stats))
	for s, n := range stats {
		out[string(s)] = n
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle del lote
// @Description  Lote con ítems, dispositivos serializados y avance de recepción.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	detail, err := h.lookup.BatchDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBatchDetailResponse(detail))
}

// UpdateItem godoc
// @Summary      Editar ítem antes de recibir
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                      true  "ID del lote"
// @Param        itemId  path  string                      true  "ID del ítem"
// @Param        body    body  dto.UpdateBatchItemRequest  true  "Cantidad, descripción o notas"
// @Success      200     {object}  dto.BatchResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/items/{itemId} [patch]
func (h *BatchHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateBatchItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.batches.UpdateItem(c.UserContext(), c.Params("id"), c.Params("itemId"), inventory.ItemUpdate{
		Quantity:    in.Quantity,
		Description: in.Description,
		Notes:       in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBatchResponse(b, nil))
}

// AssignPrices godoc
// @Summary      Asignar costos unitarios
// @Description  Requiere costo para todos los ítems; el lote pasa a ready_for_receiving.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del lote"
// @Param        body  body  dto.AssignPricesRequest  true  "Costos por ítem"
// @Success      200   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/prices [patch]
func (h *BatchHandler) AssignPrices(c *fiber.Ctx) error {
	var in dto.AssignPricesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.batches.AssignPricesFromRequest(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BeginReceiving godoc
// @Summary      Iniciar recepción
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/begin-receiving [post]
func (h *BatchHandler) BeginReceiving(c *fiber.Ctx) error {
	b, err := h.batches.BeginReceiving(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBatchResponse(b, nil))
}

// RecordUnitsReceived godoc
// @Summary      Registrar unidades recibidas (sin serializar)
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                    true  "ID del lote"
// @Param        itemId  path  string                    true  "ID del ítem"
// @Param        body    body  dto.UnitsReceivedRequest  true  "Cantidad"
// @Success      200     {object}  dto.BatchResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/items/{itemId}/received [post]
func (h *BatchHandler) RecordUnitsReceived(c *fiber.Ctx) error {
	var in dto.UnitsReceivedRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.batches.RecordUnitsReceived(c.UserContext(), c.Params("id"), c.Params("itemId"), in.Count, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBatchResponse(b, nil))
}

// Cancel godoc
// @Summary      Cancelar lote
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.CancelBatchRequest  true  "Motivo"
// @Success      200   {object}  dto.BatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/cancel [post]
func (h *BatchHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.batches.Cancel(c.UserContext(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBatchResponse(b, nil))
}

// ReadyToSell godoc
// @Summary      Marcar lote listo para la venta
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.ReadyToSellRequest  false  "Precios de venta por serial"
// @Success      200   {object}  dto.BatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/ready-to-sell [post]
func (h *BatchHandler) ReadyToSell(c *fiber.Ctx) error {
	var in dto.ReadyToSellRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.batches.MarkReadyToSellFromRequest(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReceiveUnit godoc
// @Summary      Recibir y serializar una unidad
// @Description  Genera el serial, crea el dispositivo y su movimiento purchase_received.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.ReceiveUnitRequest  true  "Ítem, inspección, specs y defectos"
// @Success      201   {object}  dto.ReceiveUnitResponse
// @Success      200   {object}  dto.ReceiveUnitResponse  "reintento con la misma idempotency_key"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/units [post]
func (h *BatchHandler) ReceiveUnit(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceiveUnitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.receive.ReceiveUnitFromRequest(c.UserContext(), c.Params("id"), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Replayed {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
