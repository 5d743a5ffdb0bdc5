package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var postgresDialect = dialect{name: "postgres", rebind: dollarNumbers, classify: classifyPostgres}

func NewPostgresDB(dsn string) (*SQLDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(20)
	d.SetMaxIdleConns(5)
	d.SetConnMaxLifetime(30 * time.Minute)

	// rely on migrations to create tables; just verify connectivity
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return &SQLDB{db: d, d: postgresDialect}, nil
}

func classifyPostgres(err error) constraint {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return constraintNone
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		return constraintUnique
	case "23503": // foreign_key_violation
		return constraintForeignKey
	}
	return constraintNone
}
