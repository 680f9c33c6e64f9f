package inventory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/width"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

const (
	minSearchLength = 2
	maxSearchResult = 20
	recentLimit     = 50
)

// LookupUseCase proyecciones de solo lectura sobre el ledger y los lotes.
type LookupUseCase struct {
	txRunner  TxRunner
	directory Directory
	settings  Settings
}

// NewLookupUseCase construye el caso de uso.
func NewLookupUseCase(txRunner TxRunner, directory Directory, settings Settings) *LookupUseCase {
	return &LookupUseCase{txRunner: txRunner, directory: directory, settings: settings}
}

// LookupResult respuesta de un escaneo de código. Found=false no es error.
type LookupResult struct {
	Code       string
	Found      bool
	Device     *entity.Device
	Product    *ProductInfo
	HolderID   string
	CustomerID string
}

// NormalizeCode limpia un código leído por escáner: ancho completo a ASCII, sin espacios, en mayúsculas.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(width.Fold.String(code)))
}

// LookupBySerial resuelve un código escaneado a su dispositivo.
func (uc *LookupUseCase) LookupBySerial(ctx context.Context, code string) (*LookupResult, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, domain.Invalid("code", "requerido")
	}
	res := &LookupResult{Code: normalized}
	device, err := uc.txRunner.Reader().Devices.GetBySerial(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return res, nil
	}
	res.Found = true
	res.Device = device
	res.HolderID = device.HolderID
	res.CustomerID = device.CustomerID
	res.Product = uc.product(ctx, device.ProductID, device.Description)
	return res, nil
}

// Search busca por fragmento de serial (mínimo 2 caracteres, máximo 20 resultados).
func (uc *LookupUseCase) Search(ctx context.Context, fragment string) ([]*entity.Device, error) {
	fragment = NormalizeCode(fragment)
	if len([]rune(fragment)) < minSearchLength {
		return nil, domain.Invalid("q", "mínimo 2 caracteres")
	}
	return uc.txRunner.Reader().Devices.Search(ctx, fragment, maxSearchResult)
}

// BatchProgress avance de recepción del lote.
type BatchProgress struct {
	Total    int
	Received int
	Percent  float64
}

// BatchDetail lote con ítems, dispositivos creados y avance.
type BatchDetail struct {
	Batch    *entity.PurchaseBatch
	Devices  []*entity.Device
	Products map[string]*ProductInfo
	Progress BatchProgress
}

// BatchDetail carga lote y dispositivos en paralelo.
func (uc *LookupUseCase) BatchDetail(ctx context.Context, batchID string) (*BatchDetail, error) {
	repos := uc.txRunner.Reader()
	var (
		batch   *entity.PurchaseBatch
		devices []*entity.Device
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		batch, err = repos.Batches.GetByID(gctx, batchID)
		return err
	})
	g.Go(func() error {
		var err error
		devices, err = repos.Devices.ListByBatch(gctx, batchID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}

	detail := &BatchDetail{
		Batch:    batch,
		Devices:  devices,
		Products: uc.products(ctx, batch.Items),
		Progress: BatchProgress{Total: batch.TotalQuantity, Received: batch.ReceivedQuantity},
	}
	if batch.TotalQuantity > 0 {
		detail.Progress.Percent = float64(batch.ReceivedQuantity) * 100 / float64(batch.TotalQuantity)
	}
	return detail, nil
}

// products resuelve los productos de catálogo de los ítems. Un fallo del catálogo no rompe la vista.
func (uc *LookupUseCase) products(ctx context.Context, items []*entity.BatchItem) map[string]*ProductInfo {
	out := make(map[string]*ProductInfo)
	if uc.directory == nil {
		return out
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, it := range items {
		id := it.ProductID
		if id == "" {
			continue
		}
		mu.Lock()
		_, seen := out[id]
		out[id] = nil
		mu.Unlock()
		if seen {
			continue
		}
		g.Go(func() error {
			p, err := uc.directory.Product(gctx, id)
			if err != nil {
				log.Warn().Err(err).Str("product_id", id).Msg("catálogo no disponible")
				return nil
			}
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	// Las fallas del catálogo ya quedaron registradas; la proyección sale sin ese producto.
	_ = g.Wait()
	for id, p := range out {
		if p == nil {
			delete(out, id)
		}
	}
	return out
}

func (uc *LookupUseCase) product(ctx context.Context, productID, description string) *ProductInfo {
	if productID == "" || uc.directory == nil {
		if description == "" {
			return nil
		}
		return &ProductInfo{Name: description}
	}
	p, err := uc.directory.Product(ctx, productID)
	if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("catálogo no disponible")
	}
	if p == nil {
		return &ProductInfo{ID: productID, Name: description}
	}
	return p
}

// HistoryStats conteos derivados del historial.
type HistoryStats struct {
	TotalMovements int
	Transfers      int
	CustodyChanges int
	Maintenance    int
	DaysInStock    int
}

// DeviceHistory historial ordenado más resumen de garantía y condición.
type DeviceHistory struct {
	Device            *entity.Device
	Product           *ProductInfo
	Movements         []*entity.Movement
	Stats             HistoryStats
	Warranty          lifecycle.WarrantySummary
	SupplierWarranty  lifecycle.WarrantySummary
	Condition         string
	Defects           []string
	CurrentMatchesLog bool
}

// DeviceHistory proyección de historial de un serial.
func (uc *LookupUseCase) DeviceHistory(ctx context.Context, serial string) (*DeviceHistory, error) {
	repos := uc.txRunner.Reader()
	device, err := repos.Devices.GetBySerial(ctx, NormalizeCode(serial))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrNotFound
	}

	var (
		movements []*entity.Movement
		product   *ProductInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movements, err = repos.Movements.ListByDevice(gctx, device.ID)
		return err
	})
	g.Go(func() error {
		product = uc.product(gctx, device.ProductID, device.Description)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := uc.settings.now()
	h := &DeviceHistory{
		Device:           device,
		Product:          product,
		Movements:        movements,
		Stats:            historyStats(device, movements, now),
		Warranty:         lifecycle.Warranty(device.WarrantyEnd, now),
		SupplierWarranty: lifecycle.Warranty(device.SupplierWarrantyEnd, now),
		Condition:        device.Condition,
		Defects:          device.Defects,
	}
	h.CurrentMatchesLog = len(movements) > 0 && movements[len(movements)-1].ToStatus == device.Status
	return h, nil
}

func historyStats(device *entity.Device, movements []*entity.Movement, now time.Time) HistoryStats {
	s := HistoryStats{TotalMovements: len(movements)}
	for _, m := range movements {
		switch m.Type {
		case entity.MovementWarehouseTransfer:
			s.Transfers++
		case entity.MovementCustodyAssign, entity.MovementCustodyReturn:
			s.CustodyChanges++
		case entity.MovementMaintenanceIn:
			s.Maintenance++
		}
	}
	end := now
	if device.SaleDate != nil {
		end = *device.SaleDate
	}
	s.DaysInStock = int(end.Sub(device.CreatedAt).Hours() / 24)
	return s
}

// RecentMovements últimos movimientos de todos los dispositivos.
func (uc *LookupUseCase) RecentMovements(ctx context.Context, limit int) ([]*entity.MovementFeedItem, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	return uc.txRunner.Reader().Movements.ListRecent(ctx, limit)
}

// MovementStats foto del inventario serializado.
type MovementStats struct {
	ByStatus      map[entity.DeviceStatus]int
	TodayByType   map[entity.MovementType]int
	InCustody     int
	TotalDevices  int
	TodayMovement int
}

// MovementStats dispositivos por estado y movimientos del día por tipo.
func (uc *LookupUseCase) MovementStats(ctx context.Context) (*MovementStats, error) {
	repos := uc.txRunner.Reader()
	now := uc.settings.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		byStatus map[entity.DeviceStatus]int
		byType   map[entity.MovementType]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = repos.Devices.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byType, err = repos.Movements.CountByTypeSince(gctx, startOfDay)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &MovementStats{
		ByStatus:    make(map[entity.DeviceStatus]int, len(entity.DeviceStatuses)),
		TodayByType: make(map[entity.MovementType]int, len(byType)),
	}
	for _, s := range entity.DeviceStatuses {
		st.ByStatus[s] = byStatus[s]
		st.TotalDevices += byStatus[s]
	}
	for t, n := range byType {
		st.TodayByType[t] = n
		st.TodayMovement += n
	}
	st.InCustody = st.ByStatus[entity.StatusInCustody]
	return st, nil
}
