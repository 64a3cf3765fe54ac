package db

var schema = `
CREATE TABLE IF NOT EXISTS bookings (
	booking_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	game_id UUID NOT NULL,
	status VARCHAR(16) NOT NULL,
	total_price NUMERIC(10, 2) NOT NULL,
	hold_expires_at TIMESTAMPTZ,
	version INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bookings_hold_expiry ON bookings (status, hold_expires_at);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id, game_id);

CREATE TABLE IF NOT EXISTS booking_seats (
	booking_id UUID NOT NULL REFERENCES bookings (booking_id),
	seat_id UUID NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	seat_order INT NOT NULL,
	PRIMARY KEY (booking_id, seat_id)
);
CREATE INDEX IF NOT EXISTS idx_booking_seats_seat ON booking_seats (seat_id);

CREATE TABLE IF NOT EXISTS seat_replicas (
	seat_id UUID PRIMARY KEY,
	game_id UUID NOT NULL,
	section_id UUID NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE'
);
CREATE INDEX IF NOT EXISTS idx_seat_replicas_game ON seat_replicas (game_id, status);

CREATE TABLE IF NOT EXISTS games (
	game_id UUID PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	max_seats_per_user INT NOT NULL DEFAULT 4
);

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type VARCHAR(64) NOT NULL,
	aggregate_id VARCHAR(64) NOT NULL,
	event_type VARCHAR(128) NOT NULL,
	topic VARCHAR(255) NOT NULL,
	partition_key VARCHAR(255) NOT NULL,
	payload JSONB NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	retry_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (status, created_at);

CREATE TABLE IF NOT EXISTS processed_events (
	event_id UUID PRIMARY KEY,
	topic VARCHAR(255) NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
