package database

import (
	"database/sql"
	"fmt"
	"strings"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS restaurants (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    receipt_prefix VARCHAR(16) NOT NULL DEFAULT 'RCP',
    tax_rate_bps INT NOT NULL DEFAULT 0,
    service_rate_bps INT NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tables (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    restaurant_id BIGINT UNSIGNED NOT NULL,
    label VARCHAR(32) NOT NULL,
    capacity INT UNSIGNED NOT NULL DEFAULT 4,
    status ENUM('AVAILABLE','OCCUPIED','RESERVED') NOT NULL DEFAULT 'AVAILABLE',
    qr_token CHAR(36) NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_tables_qr_token (qr_token),
    KEY idx_tables_restaurant (restaurant_id),
    CONSTRAINT fk_tables_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)
);

CREATE TABLE IF NOT EXISTS orders (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    restaurant_id BIGINT UNSIGNED NOT NULL,
    table_id BIGINT UNSIGNED NOT NULL,
    status ENUM('PENDING','CONFIRMED','PREPARING','READY','SERVED','CANCELLED') NOT NULL DEFAULT 'PENDING',
    payment_status ENUM('PENDING','PAID','REFUNDED') NOT NULL DEFAULT 'PENDING',
    subtotal_cents BIGINT NOT NULL DEFAULT 0,
    tax_cents BIGINT NOT NULL DEFAULT 0,
    service_cents BIGINT NOT NULL DEFAULT 0,
    total_cents BIGINT NOT NULL DEFAULT 0,
    tax_rate_bps INT NOT NULL DEFAULT 0,
    service_rate_bps INT NOT NULL DEFAULT 0,
    version INT UNSIGNED NOT NULL DEFAULT 0,
    modification_count INT UNSIGNED NOT NULL DEFAULT 0,
    has_modifications TINYINT(1) NOT NULL DEFAULT 0,
    cancelled_at DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_orders_table_payment (table_id, payment_status, status),
    KEY idx_orders_restaurant (restaurant_id),
    CONSTRAINT fk_orders_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id),
    CONSTRAINT fk_orders_table FOREIGN KEY (table_id) REFERENCES tables(id)
);

CREATE TABLE IF NOT EXISTS order_items (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    order_id BIGINT UNSIGNED NOT NULL,
    menu_item_id BIGINT UNSIGNED NOT NULL,
    name VARCHAR(128) NOT NULL,
    quantity INT UNSIGNED NOT NULL,
    unit_price_cents BIGINT NOT NULL,
    total_cents BIGINT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_order_items_order (order_id),
    CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS order_modifications (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    order_id BIGINT UNSIGNED NOT NULL,
    idempotency_key VARCHAR(64) NOT NULL,
    old_total_cents BIGINT NOT NULL,
    new_total_cents BIGINT NOT NULL,
    reason VARCHAR(255) NOT NULL DEFAULT '',
    actor_id BIGINT UNSIGNED NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_modifications_idem (idempotency_key),
    KEY idx_modifications_order (order_id),
    CONSTRAINT fk_modifications_order FOREIGN KEY (order_id) REFERENCES orders(id)
);

CREATE TABLE IF NOT EXISTS order_modification_items (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    modification_id BIGINT UNSIGNED NOT NULL,
    menu_item_id BIGINT UNSIGNED NOT NULL,
    change_type ENUM('ADDED','REMOVED','QUANTITY_CHANGED') NOT NULL,
    old_quantity INT UNSIGNED NOT NULL DEFAULT 0,
    new_quantity INT UNSIGNED NOT NULL DEFAULT 0,
    unit_price_cents BIGINT NOT NULL,
    KEY idx_modification_items_mod (modification_id),
    CONSTRAINT fk_modification_items_mod FOREIGN KEY (modification_id) REFERENCES order_modifications(id)
);

CREATE TABLE IF NOT EXISTS payments (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    order_id BIGINT UNSIGNED NOT NULL,
    restaurant_id BIGINT UNSIGNED NOT NULL,
    amount_cents BIGINT NOT NULL,
    method ENUM('CASH','CARD','QR') NOT NULL,
    cash_tendered_cents BIGINT NOT NULL DEFAULT 0,
    change_cents BIGINT NOT NULL DEFAULT 0,
    receipt_number VARCHAR(48) NOT NULL,
    sequence_number BIGINT UNSIGNED NOT NULL,
    primary_receipt TINYINT(1) NOT NULL DEFAULT 0,
    external_ref VARCHAR(128) NOT NULL DEFAULT '',
    processed_by BIGINT UNSIGNED NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_payments_order (order_id),
    KEY idx_payments_receipt (receipt_number),
    CONSTRAINT fk_payments_order FOREIGN KEY (order_id) REFERENCES orders(id)
);

CREATE TABLE IF NOT EXISTS receipt_sequences (
    restaurant_id BIGINT UNSIGNED NOT NULL,
    seq_date CHAR(8) NOT NULL,
    next_value BIGINT UNSIGNED NOT NULL DEFAULT 0,
    PRIMARY KEY (restaurant_id, seq_date)
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    restaurant_id BIGINT UNSIGNED NOT NULL,
    actor_id BIGINT UNSIGNED NOT NULL,
    action VARCHAR(64) NOT NULL,
    entity VARCHAR(32) NOT NULL,
    entity_id BIGINT UNSIGNED NOT NULL,
    details VARCHAR(512) NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_audit_restaurant (restaurant_id)
);
`

// InitSchema creates all tables when they do not exist yet. MySQL does
// not accept multiple statements in one Exec by default, so the schema
// is split on the statement boundary.
func InitSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
