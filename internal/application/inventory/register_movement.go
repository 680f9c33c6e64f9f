package inventory

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// RegisterMovementFromRequest adapta el request HTTP al motor RecordMovement(ctx, MovementInput).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, serial, userID string, in dto.RegisterMovementRequest) (*dto.MovementResultResponse, error) {
	res, err := uc.RecordMovement(ctx, MovementInput{
		Serial:         NormalizeCode(serial),
		Type:           entity.MovementType(in.Type),
		TargetStatus:   entity.DeviceStatus(in.TargetStatus),
		ToWarehouseID:  in.ToWarehouseID,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		CustomerID:     in.CustomerID,
		Condition:      in.Condition,
		Specs:          in.Specs,
		IdempotencyKey: in.IdempotencyKey,
		PerformedBy:    userID,
		Notes:          in.Notes,
	})
	if err != nil {
		return nil, err
	}
	return ToMovementResultResponse(res), nil
}

// BulkTransferFromRequest adapta POST /api/devices/transfer.
func (uc *RegisterMovementUseCase) BulkTransferFromRequest(ctx context.Context, userID string, in dto.BulkTransferRequest) ([]dto.TransferResultResponse, error) {
	serials := make([]string, 0, len(in.Serials))
	for _, s := range in.Serials {
		serials = append(serials, NormalizeCode(s))
	}
	results, err := uc.BulkTransfer(ctx, serials, in.ToWarehouseID, userID, in.Notes)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TransferResultResponse, 0, len(results))
	for _, r := range results {
		item := dto.TransferResultResponse{Serial: r.Serial, OK: r.Error == nil}
		if r.Error != nil {
			item.Error = r.Error.Error()
		}
		out = append(out, item)
	}
	return out, nil
}

// CreateBatchFromRequest adapta POST /api/batches.
func (uc *BatchLifecycleUseCase) CreateBatchFromRequest(ctx context.Context, userID string, in dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	items := make([]NewItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, NewItem{
			ProductID:      it.ProductID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			WarrantyMonths: it.WarrantyMonths,
			Notes:          it.Notes,
		})
	}
	batch, err := uc.CreateBatch(ctx, CreateBatchInput{
		SupplierID:  in.SupplierID,
		WarehouseID: in.WarehouseID,
		Items:       items,
		Notes:       in.Notes,
		CreatedBy:   userID,
	})
	if err != nil {
		return nil, err
	}
	out := ToBatchResponse(batch, nil)
	return &out, nil
}

// AssignPricesFromRequest adapta PATCH /api/batches/:id/prices.
func (uc *BatchLifecycleUseCase) AssignPricesFromRequest(ctx context.Context, batchID, userID string, in dto.AssignPricesRequest) (*dto.BatchResponse, error) {
	prices := make([]ItemPrice, 0, len(in.Prices))
	for _, p := range in.Prices {
		prices = append(prices, ItemPrice{ItemID: p.ItemID, UnitCost: p.UnitCost})
	}
	batch, err := uc.AssignPrices(ctx, batchID, prices, userID)
	if err != nil {
		return nil, err
	}
	out := ToBatchResponse(batch, nil)
	return &out, nil
}

// MarkReadyToSellFromRequest adapta POST /api/batches/:id/ready-to-sell.
func (uc *BatchLifecycleUseCase) MarkReadyToSellFromRequest(ctx context.Context, batchID string, in dto.ReadyToSellRequest) (*dto.BatchResponse, error) {
	prices := make([]SellingPrice, 0, len(in.SellingPrices))
	for _, p := range in.SellingPrices {
		prices = append(prices, SellingPrice{Serial: NormalizeCode(p.Serial), Price: p.Price})
	}
	batch, err := uc.MarkReadyToSell(ctx, batchID, prices)
	if err != nil {
		return nil, err
	}
	out := ToBatchResponse(batch, nil)
	return &out, nil
}

// ReceiveUnitFromRequest adapta POST /api/batches/:id/units. El ítem debe pertenecer al lote de la ruta.
func (uc *ReceiveUnitUseCase) ReceiveUnitFromRequest(ctx context.Context, batchID, userID string, in dto.ReceiveUnitRequest) (*dto.ReceiveUnitResponse, error) {
	res, err := uc.ReceiveUnit(ctx, ReceiveUnitInput{
		BatchItemID:    in.BatchItemID,
		ActualSpecs:    in.ActualSpecs,
		Outcome:        entity.InspectionOutcome(in.InspectionOutcome),
		Defects:        in.Defects,
		Notes:          in.Notes,
		IdempotencyKey: in.IdempotencyKey,
		PerformedBy:    userID,
		batchID:        batchID,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ReceiveUnitResponse{
		Device:   ToDeviceResponse(res.Device),
		Movement: ToMovementResponse(res.Movement),
		Batch:    ToBatchResponse(res.Batch, nil),
		Replayed: res.Replayed,
	}, nil
}

// ToBatchResponse mapea un lote; products es opcional para completar nombres.
func ToBatchResponse(b *entity.PurchaseBatch, products map[string]*ProductInfo) dto.BatchResponse {
	out := dto.BatchResponse{
		ID:               b.ID,
		BatchNumber:      b.BatchNumber,
		SupplierID:       b.SupplierID,
		WarehouseID:      b.WarehouseID,
		Status:           string(b.Status),
		TotalQuantity:    b.TotalQuantity,
		ReceivedQuantity: b.ReceivedQuantity,
		TotalCost:        b.TotalCost,
		Notes:            b.Notes,
		CancelReason:     b.CancelReason,
		CreatedBy:        b.CreatedBy,
		ReceivedBy:       b.ReceivedBy,
		CreatedAt:        b.CreatedAt,
		PricedAt:         b.PricedAt,
		ReceivedAt:       b.ReceivedAt,
		Items:            make([]dto.BatchItemResponse, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		item := dto.BatchItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Description:      it.Description,
			Quantity:         it.Quantity,
			ReceivedQuantity: it.ReceivedQuantity,
			UnitCost:         it.UnitCost,
			TotalCost:        it.TotalCost,
			WarrantyMonths:   it.WarrantyMonths,
			Notes:            it.Notes,
		}
		if p := products[it.ProductID]; p != nil {
			item.ProductName = p.Name
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// ToBatchDetailResponse mapea la proyección de detalle.
func ToBatchDetailResponse(d *BatchDetail) dto.BatchDetailResponse {
	out := dto.BatchDetailResponse{
		Batch:    ToBatchResponse(d.Batch, d.Products),
		Devices:  make([]dto.DeviceResponse, 0, len(d.Devices)),
		Progress: dto.BatchProgressResponse{Total: d.Progress.Total, Received: d.Progress.Received, Percent: d.Progress.Percent},
	}
	for _, dev := range d.Devices {
		out.Devices = append(out.Devices, ToDeviceResponse(dev))
	}
	return out
}

// ToDeviceResponse mapea un dispositivo.
func ToDeviceResponse(d *entity.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		ID:                  d.ID,
		SerialNumber:        d.SerialNumber,
		BatchID:             d.BatchID,
		BatchItemID:         d.BatchItemID,
		SupplierID:          d.SupplierID,
		ProductID:           d.ProductID,
		Description:         d.Description,
		WarehouseID:         d.WarehouseID,
		Status:              string(d.Status),
		HolderID:            d.HolderID,
		CustodySince:        d.CustodySince,
		CustomerID:          d.CustomerID,
		SaleDate:            d.SaleDate,
		InspectionOutcome:   string(d.Inspection),
		Condition:           d.Condition,
		Defects:             d.Defects,
		ActualSpecs:         d.ActualSpecs,
		PurchaseCost:        d.PurchaseCost,
		SellingPrice:        d.SellingPrice,
		WarrantyEnd:         d.WarrantyEnd,
		SupplierWarrantyEnd: d.SupplierWarrantyEnd,
		Notes:               d.Notes,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

// ToDeviceList mapea una lista de dispositivos.
func ToDeviceList(devices []*entity.Device) []dto.DeviceResponse {
	out := make([]dto.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, ToDeviceResponse(d))
	}
	return out
}

// ToMovementResponse mapea una entrada del ledger.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		DeviceID:        m.DeviceID,
		Sequence:        m.Sequence,
		Type:            string(m.Type),
		FromStatus:      string(m.FromStatus),
		ToStatus:        string(m.ToStatus),
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		PerformedBy:     m.PerformedBy,
		PerformedAt:     m.PerformedAt,
		Notes:           m.Notes,
	}
}

// ToMovementList mapea movimientos en orden.
func ToMovementList(movements []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToFeedList mapea el feed de movimientos recientes.
func ToFeedList(items []*entity.MovementFeedItem) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(items))
	for _, it := range items {
		m := ToMovementResponse(&it.Movement)
		m.SerialNumber = it.SerialNumber
		out = append(out, m)
	}
	return out
}

// ToMovementResultResponse mapea el resultado del motor.
func ToMovementResultResponse(res *MovementResult) *dto.MovementResultResponse {
	return &dto.MovementResultResponse{
		Movement: ToMovementResponse(res.Movement),
		Device:   ToDeviceResponse(res.Device),
		Replayed: res.Replayed,
	}
}

// ToLookupResponse mapea un escaneo.
func ToLookupResponse(r *LookupResult) dto.LookupResponse {
	out := dto.LookupResponse{Code: r.Code, Found: r.Found, HolderID: r.HolderID, CustomerID: r.CustomerID}
	if r.Device != nil {
		d := ToDeviceResponse(r.Device)
		out.Device = &d
		out.Status = string(r.Device.Status)
	}
	out.Product = toProductResponse(r.Product)
	return out
}

func toProductResponse(p *ProductInfo) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{ID: p.ID, Name: p.Name, SKU: p.SKU, Model: p.Model}
}

func toWarranty(w lifecycle.WarrantySummary) dto.WarrantyResponse {
	return dto.WarrantyResponse{State: w.State, Days: w.Days, End: w.End}
}

// ToDeviceHistoryResponse mapea la proyección de historial.
func ToDeviceHistoryResponse(h *DeviceHistory) dto.DeviceHistoryResponse {
	return dto.DeviceHistoryResponse{
		Device:    ToDeviceResponse(h.Device),
		Product:   toProductResponse(h.Product),
		Movements: ToMovementList(h.Movements),
		Stats: dto.HistoryStatsResponse{
			TotalMovements: h.Stats.TotalMovements,
			Transfers:      h.Stats.Transfers,
			CustodyChanges: h.Stats.CustodyChanges,
			Maintenance:    h.Stats.Maintenance,
			DaysInStock:    h.Stats.DaysInStock,
		},
		Warranty:         toWarranty(h.Warranty),
		SupplierWarranty: toWarranty(h.SupplierWarranty),
		Condition:        h.Condition,
		Defects:          h.Defects,
		Consistent:       h.CurrentMatchesLog,
	}
}

// ToMovementStatsResponse mapea estadísticas.
func ToMovementStatsResponse(s *MovementStats) dto.MovementStatsResponse {
	out := dto.MovementStatsResponse{
		ByStatus:       make(map[string]int, len(s.ByStatus)),
		TodayByType:    make(map[string]int, len(s.TodayByType)),
		InCustody:      s.InCustody,
		TotalDevices:   s.TotalDevices,
		TodayMovements: s.TodayMovement,
	}
	for k, v := range s.ByStatus {
		out.ByStatus[string(k)] = v
	}
	for k, v := range s.TodayByType {
		out.TodayByType[string(k)] = v
	}
	return out
}

// ToSerialSettingsResponse mapea la configuración de seriales.
func ToSerialSettingsResponse(s *entity.SerialSettings, next string) dto.SerialSettingsResponse {
	return dto.SerialSettingsResponse{
		Prefix:          s.Prefix,
		Separator:       s.Separator,
		YearFormat:      s.YearFormat,
		Digits:          s.Digits,
		ResetYearly:     s.ResetYearly,
		CurrentYear:     s.CurrentYear,
		CurrentSequence: s.CurrentSequence,
		NextSerial:      next,
		UpdatedAt:       s.UpdatedAt,
	}
}
