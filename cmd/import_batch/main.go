// import_batch crea un lote de compra en borrador a partir de una lista de empaque CSV
// exportada por el proveedor (separador ';', codificación ISO-8859-1 por defecto).
//
// Uso: go run ./cmd/import_batch -supplier SUP-01 [-warehouse main] [-utf8] lista.csv
//
// Columnas: product_id;description;quantity;warranty_months;notes
// La primera fila se ignora si es encabezado.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/memory"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/postgres"
	"github.com/jhoicas/serial-inventory-api/pkg/config"
	"github.com/jhoicas/serial-inventory-api/pkg/logger"
)

func main() {
	supplier := flag.String("supplier", "", "proveedor del lote (obligatorio)")
	warehouse := flag.String("warehouse", "", "bodega destino; vacío usa la bodega por defecto")
	notes := flag.String("notes", "", "notas del lote")
	createdBy := flag.String("user", "import_batch", "usuario que registra el lote")
	utf8 := flag.Bool("utf8", false, "el archivo ya viene en UTF-8")
	flag.Parse()

	if *supplier == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: import_batch -supplier <id> [-warehouse <id>] [-utf8] <lista.csv>")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := parsePackingList(f, !*utf8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer lista de empaque: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_batch"})

	ctx := context.Background()
	var txRunner inventory.TxRunner
	if cfg.Store.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Store.LockTimeout)
	} else {
		log.Warn().Msg("almacén en memoria: el lote no se conserva al terminar")
		txRunner = memory.NewTxRunner(memory.New())
	}

	batches := inventory.NewBatchLifecycleUseCase(txRunner, nil, inventory.Settings{
		DefaultWarehouseID:     cfg.Engine.DefaultWarehouseID,
		WarrantyMonths:         cfg.Engine.WarrantyMonths,
		SupplierWarrantyMonths: cfg.Engine.SupplierWarrantyMonths,
	})
	batch, err := batches.CreateBatch(ctx, inventory.CreateBatchInput{
		SupplierID:  *supplier,
		WarehouseID: *warehouse,
		Items:       items,
		Notes:       *notes,
		CreatedBy:   *createdBy,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear lote")
	}

	units := 0
	for _, it := range items {
		units += it.Quantity
	}
	fmt.Printf("Lote %s creado: %d ítems, %d unidades esperadas\n", batch.BatchNumber, len(items), units)
}

// parsePackingList lee las filas de la lista de empaque. latin1 decodifica ISO-8859-1.
func parsePackingList(r io.Reader, latin1 bool) ([]inventory.NewItem, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var items []inventory.NewItem
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: se esperan al menos 3 columnas", line)
		}
		qtyText := strings.TrimSpace(rec[2])
		qty, err := strconv.Atoi(qtyText)
		if err != nil {
			if line == 1 {
				continue // encabezado
			}
			return nil, fmt.Errorf("línea %d: cantidad %q inválida", line, qtyText)
		}
		it := inventory.NewItem{
			ProductID:   strings.TrimSpace(rec[0]),
			Description: strings.TrimSpace(rec[1]),
			Quantity:    qty,
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			w, err := strconv.Atoi(strings.TrimSpace(rec[3]))
			if err != nil {
				return nil, fmt.Errorf("línea %d: garantía %q inválida", line, rec[3])
			}
			it.WarrantyMonths = w
		}
		if len(rec) > 4 {
			it.Notes = strings.TrimSpace(rec[4])
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, errors.New("la lista de empaque no tiene ítems")
	}
	return items, nil
}
