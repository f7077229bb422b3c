package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('CUSTOMER','STAFF','MANAGER','OWNER') NOT NULL DEFAULT 'CUSTOMER',
		is_active     TINYINT(1) NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS room_types (
		id   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		UNIQUE KEY uq_room_types_name (name)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name         VARCHAR(100) NOT NULL,
		room_type_id BIGINT UNSIGNED NOT NULL,
		status       ENUM('ACTIVE','NONACTIVE') NOT NULL DEFAULT 'ACTIVE',
		seat_rows    INT NOT NULL,
		seat_cols    INT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_rooms_name (name),
		CONSTRAINT fk_rooms_room_type FOREIGN KEY (room_type_id) REFERENCES room_types (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS seats (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		room_id      BIGINT UNSIGNED NOT NULL,
		row_index    INT NOT NULL,
		column_index INT NOT NULL,
		class        ENUM('SINGLE','DOUBLE','NONE') NOT NULL,
		name         VARCHAR(16) NOT NULL,
		UNIQUE KEY uq_seats_slot (room_id, row_index, column_index),
		CONSTRAINT fk_seats_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movies (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		duration_min INT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS showtimes (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id     BIGINT UNSIGNED NOT NULL,
		room_id      BIGINT UNSIGNED NOT NULL,
		start_time   DATETIME NOT NULL,
		end_time     DATETIME NOT NULL,
		duration_min INT NOT NULL,
		single_price BIGINT NOT NULL,
		double_price BIGINT NOT NULL,
		grid_rows    INT NOT NULL,
		grid_cols    INT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_showtimes_room_time (room_id, start_time, end_time),
		KEY idx_showtimes_start (start_time),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_showtimes_room FOREIGN KEY (room_id) REFERENCES rooms (id)
	) ENGINE=InnoDB`,

	// seat_id has no foreign key: a resize may physically remove seats that
	// tickets of past showtimes still point at.
	`CREATE TABLE IF NOT EXISTS tickets (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		showtime_id BIGINT UNSIGNED NOT NULL,
		seat_id     BIGINT UNSIGNED NOT NULL,
		price       BIGINT NOT NULL,
		is_booked   TINYINT(1) NOT NULL DEFAULT 0,
		UNIQUE KEY uq_tickets_showtime_seat (showtime_id, seat_id),
		KEY idx_tickets_seat (seat_id),
		CONSTRAINT fk_tickets_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS items (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		image_url  VARCHAR(1024) NOT NULL DEFAULT '',
		price      BIGINT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT UNSIGNED NULL,
		staff_id    BIGINT UNSIGNED NULL,
		total_price BIGINT NOT NULL,
		created_at  DATETIME NOT NULL,
		KEY idx_transactions_customer (customer_id, created_at),
		KEY idx_transactions_created (created_at),
		CONSTRAINT fk_transactions_customer FOREIGN KEY (customer_id) REFERENCES users (id),
		CONSTRAINT fk_transactions_staff FOREIGN KEY (staff_id) REFERENCES users (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS transaction_tickets (
		transaction_id BIGINT UNSIGNED NOT NULL,
		ticket_id      BIGINT UNSIGNED NOT NULL,
		position       INT NOT NULL,
		PRIMARY KEY (transaction_id, position),
		UNIQUE KEY uq_transaction_tickets_ticket (ticket_id),
		CONSTRAINT fk_tt_transaction FOREIGN KEY (transaction_id) REFERENCES transactions (id) ON DELETE CASCADE,
		CONSTRAINT fk_tt_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id)
	) ENGINE=InnoDB`,

	// item_id has no foreign key: lines outlive catalog removals and keep
	// their unit price.
	`CREATE TABLE IF NOT EXISTS transaction_items (
		transaction_id BIGINT UNSIGNED NOT NULL,
		position       INT NOT NULL,
		item_id        BIGINT UNSIGNED NOT NULL,
		quantity       INT NOT NULL,
		unit_price     BIGINT NOT NULL,
		PRIMARY KEY (transaction_id, position),
		CONSTRAINT fk_ti_transaction FOREIGN KEY (transaction_id) REFERENCES transactions (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
