package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DB struct {
	Conn *sqlx.DB
}

func NewDBConn(ctx context.Context, connString string) (DB, error) {
	conn, err := sqlx.Open("postgres", connString)
	if err != nil {
		return DB{}, err
	}
	if err := conn.PingContext(ctx); err != nil {
		return DB{}, err
	}

	return DB{Conn: conn}, nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}

func (db *DB) MigrateSchema() {
	db.Conn.MustExec(schema)
}
