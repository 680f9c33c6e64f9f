package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/pkg/config"
)

var _ inventory.Directory = (*Client)(nil)

// Recursos del servicio de directorio.
const (
	resourceProducts   = "products"
	resourceWarehouses = "warehouses"
	resourceEmployees  = "employees"
	resourceCustomers  = "customers"
)

// Client consulta el catálogo de productos y los registros de bodegas, empleados y clientes
// (GET {base}/{recurso}/{id}). Lo ya confirmado queda en memoria: si el servicio falla,
// una referencia conocida se sigue aceptando.
type Client struct {
	http *resty.Client

	mu       sync.RWMutex
	known    map[string]bool
	products map[string]*inventory.ProductInfo
}

// NewClient construye el cliente con base URL, token Bearer y timeout de la configuración.
func NewClient(cfg config.DirectoryConfig) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}
	return &Client{
		http:     rc,
		known:    map[string]bool{},
		products: map[string]*inventory.ProductInfo{},
	}
}

// fetch GET del recurso. (false, nil) si el servicio responde 404.
func (c *Client) fetch(ctx context.Context, resource, id string, out any) (bool, error) {
	ctx, span := otel.Tracer("directory").Start(ctx, "directory.get")
	span.SetAttributes(attribute.String("directory.resource", resource), attribute.String("directory.id", id))
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get("/" + resource + "/" + url.PathEscape(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("directorio %s/%s: %w: %w", resource, id, domain.ErrPersistence, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return false, nil
	case resp.IsError():
		span.SetStatus(codes.Error, resp.Status())
		return false, fmt.Errorf("directorio %s/%s: %w: status %d", resource, id, domain.ErrPersistence, resp.StatusCode())
	}
	return true, nil
}

func (c *Client) exists(ctx context.Context, resource, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	key := resource + "/" + id
	ok, err := c.fetch(ctx, resource, id, nil)
	if err != nil {
		c.mu.RLock()
		cached := c.known[key]
		c.mu.RUnlock()
		if cached {
			log.Warn().Err(err).Str("resource", resource).Str("id", id).Msg("directorio no disponible, se usa referencia conocida")
			return true, nil
		}
		return false, err
	}
	c.mu.Lock()
	if ok {
		c.known[key] = true
	} else {
		delete(c.known, key)
	}
	c.mu.Unlock()
	return ok, nil
}

// Product ficha del producto; (nil, nil) si no existe.
func (c *Client) Product(ctx context.Context, id string) (*inventory.ProductInfo, error) {
	if id == "" {
		return nil, nil
	}
	var p inventory.ProductInfo
	ok, err := c.fetch(ctx, resourceProducts, id, &p)
	if err != nil {
		c.mu.RLock()
		cached := c.products[id]
		c.mu.RUnlock()
		if cached != nil {
			log.Warn().Err(err).Str("product_id", id).Msg("directorio no disponible, se usa producto conocido")
			cp := *cached
			return &cp, nil
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if p.ID == "" {
		p.ID = id
	}
	c.mu.Lock()
	cp := p
	c.products[id] = &cp
	c.mu.Unlock()
	return &p, nil
}

func (c *Client) WarehouseExists(ctx context.Context, id string) (bool, error) {
	return c.exists(ctx, resourceWarehouses, id)
}

func (c *Client) EmployeeExists(ctx context.Context, id string) (bool, error) {
	return c.exists(ctx, resourceEmployees, id)
}

func (c *Client) CustomerExists(ctx context.Context, id string) (bool, error) {
	return c.exists(ctx, resourceCustomers, id)
}
