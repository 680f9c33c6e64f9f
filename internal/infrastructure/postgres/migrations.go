package postgres

import (
	"context"
	"fmt"
)

// schema sentencias idempotentes; se ejecutan en orden al arrancar.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS purchase_batches (
		id                UUID PRIMARY KEY,
		batch_number      VARCHAR(32) NOT NULL UNIQUE,
		supplier_id       VARCHAR(64) NOT NULL,
		warehouse_id      VARCHAR(64) NOT NULL,
		status            VARCHAR(32) NOT NULL CHECK (status IN ('awaiting_prices','ready_for_receiving','receiving','received','ready_to_sell','cancelled')),
		total_quantity    INT NOT NULL CHECK (total_quantity > 0),
		received_quantity INT NOT NULL DEFAULT 0,
		total_cost        NUMERIC(18,2),
		notes             TEXT,
		cancel_reason     TEXT,
		created_by        VARCHAR(64) NOT NULL,
		priced_by         VARCHAR(64),
		received_by       VARCHAR(64),
		created_at        TIMESTAMPTZ NOT NULL,
		priced_at         TIMESTAMPTZ,
		received_at       TIMESTAMPTZ,
		updated_at        TIMESTAMPTZ NOT NULL,
		CONSTRAINT purchase_batches_received_range CHECK (received_quantity >= 0 AND received_quantity <= total_quantity)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_batches_status ON purchase_batches(status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS batch_items (
		id                UUID PRIMARY KEY,
		batch_id          UUID NOT NULL REFERENCES purchase_batches(id),
		position          INT NOT NULL,
		product_id        VARCHAR(64),
		description       TEXT,
		quantity          INT NOT NULL CHECK (quantity > 0),
		received_quantity INT NOT NULL DEFAULT 0,
		unit_cost         NUMERIC(18,2),
		total_cost        NUMERIC(18,2),
		warranty_months   INT NOT NULL DEFAULT 0,
		notes             TEXT,
		CONSTRAINT batch_items_received_range CHECK (received_quantity >= 0 AND received_quantity <= quantity)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_items_batch ON batch_items(batch_id, position)`,
	`CREATE TABLE IF NOT EXISTS batch_sequences (
		period     CHAR(6) PRIMARY KEY,
		last_value INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id                    UUID PRIMARY KEY,
		serial_number         VARCHAR(64) NOT NULL UNIQUE,
		batch_id              UUID NOT NULL REFERENCES purchase_batches(id),
		batch_item_id         UUID NOT NULL REFERENCES batch_items(id),
		supplier_id           VARCHAR(64) NOT NULL,
		product_id            VARCHAR(64),
		description           TEXT,
		warehouse_id          VARCHAR(64) NOT NULL,
		status                VARCHAR(32) NOT NULL,
		holder_id             VARCHAR(64),
		custody_since         TIMESTAMPTZ,
		custody_reason        TEXT,
		customer_id           VARCHAR(64),
		sale_date             TIMESTAMPTZ,
		inspection_outcome    VARCHAR(32) NOT NULL,
		condition             VARCHAR(32),
		defects               TEXT[],
		actual_specs          JSONB,
		purchase_cost         NUMERIC(18,2),
		selling_price         NUMERIC(18,2),
		warranty_months       INT NOT NULL DEFAULT 0,
		warranty_start        TIMESTAMPTZ,
		warranty_end          TIMESTAMPTZ,
		supplier_warranty_end TIMESTAMPTZ,
		intake_key            VARCHAR(128) UNIQUE,
		notes                 TEXT,
		version               INT NOT NULL DEFAULT 1,
		created_by            VARCHAR(64) NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_batch ON devices(batch_id)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_custody ON devices(holder_id) WHERE status = 'in_custody'`,
	`CREATE TABLE IF NOT EXISTS device_movements (
		id                UUID PRIMARY KEY,
		device_id         UUID NOT NULL REFERENCES devices(id),
		sequence          INT NOT NULL,
		movement_type     VARCHAR(32) NOT NULL,
		from_status       VARCHAR(32) NOT NULL,
		to_status         VARCHAR(32) NOT NULL,
		from_warehouse_id VARCHAR(64),
		to_warehouse_id   VARCHAR(64),
		reference_type    VARCHAR(32),
		reference_id      VARCHAR(64),
		idempotency_key   VARCHAR(128),
		performed_by      VARCHAR(64) NOT NULL,
		performed_at      TIMESTAMPTZ NOT NULL,
		notes             TEXT,
		UNIQUE (device_id, sequence)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_device_movements_idempotency
		ON device_movements(device_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_device_movements_recent ON device_movements(performed_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_device_movements_reference ON device_movements(reference_type, reference_id)`,
	// El ledger es append-only también para quien tenga acceso directo a la base.
	`CREATE OR REPLACE FUNCTION device_movements_append_only() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'device_movements es append-only';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_device_movements_append_only ON device_movements`,
	`CREATE TRIGGER trg_device_movements_append_only BEFORE UPDATE OR DELETE ON device_movements
		FOR EACH ROW EXECUTE FUNCTION device_movements_append_only()`,
	`CREATE TABLE IF NOT EXISTS serial_settings (
		id               SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		prefix           VARCHAR(16) NOT NULL,
		separator        VARCHAR(4) NOT NULL,
		year_format      VARCHAR(4) NOT NULL,
		digits           INT NOT NULL,
		reset_yearly     BOOLEAN NOT NULL DEFAULT false,
		current_year     INT NOT NULL DEFAULT 0,
		current_sequence BIGINT NOT NULL DEFAULT 0,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate crea o actualiza el esquema.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración %d: %w", i, err)
		}
	}
	return nil
}
