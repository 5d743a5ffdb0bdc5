package main

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ranks (no INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS employees (no INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL UNIQUE, password TEXT NOT NULL, fname TEXT NOT NULL DEFAULT '', lname TEXT NOT NULL DEFAULT '', phone TEXT NOT NULL DEFAULT '', gender TEXT NOT NULL DEFAULT '', ranks_id INTEGER REFERENCES ranks(no) ON DELETE SET NULL, status TEXT NOT NULL DEFAULT 'active', created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (id INTEGER PRIMARY KEY AUTOINCREMENT, token_hash TEXT NOT NULL UNIQUE, employee_id INTEGER NOT NULL REFERENCES employees(no) ON DELETE CASCADE, expires_at DATETIME NOT NULL, revoked BOOLEAN NOT NULL DEFAULT 0, rotated BOOLEAN NOT NULL DEFAULT 0, created_at DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS types (no INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS froms (no INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS customers (no INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL UNIQUE, nickname TEXT NOT NULL DEFAULT '', type_id INTEGER REFERENCES types(no) ON DELETE SET NULL, from_id INTEGER REFERENCES froms(no) ON DELETE SET NULL, emp_id INTEGER REFERENCES employees(no) ON DELETE SET NULL, created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS stocks (no INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, type TEXT NOT NULL DEFAULT '', low_price REAL NOT NULL DEFAULT 0, up_price REAL NOT NULL DEFAULT 0, dividend_amount REAL NOT NULL DEFAULT 0, closing_price REAL NOT NULL DEFAULT 0, comment TEXT NOT NULL DEFAULT '', emp_id INTEGER REFERENCES employees(no) ON DELETE SET NULL, created_date DATETIME NOT NULL, updated_date DATETIME NOT NULL);`,
	`CREATE TABLE IF NOT EXISTS logs (no INTEGER PRIMARY KEY AUTOINCREMENT, stocks_detail_id INTEGER, stocks_id INTEGER, transactions_id INTEGER, users_id INTEGER, ports_id INTEGER, form_id INTEGER, type TEXT NOT NULL DEFAULT '', action TEXT NOT NULL DEFAULT '', detail TEXT NOT NULL DEFAULT '', emp_id INTEGER, time DATETIME NOT NULL);`,
}

var sqliteDialect = dialect{name: "sqlite", rebind: questionMarks, classify: classifySQLite}

// NewSQLiteDB opens (and if needed creates) the database at path. Use
// ":memory:" for a throwaway in-process database.
func NewSQLiteDB(path string) (*SQLDB, error) {
	d, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection also keeps ":memory:" alive.
	d.SetMaxOpenConns(1)
	d.SetConnMaxLifetime(0)
	s := &SQLDB{db: d, d: sqliteDialect}
	if err := initSQLite(d); err != nil {
		d.Close()
		return nil, err
	}
	return s, nil
}

// sqliteUpgrades bring files created by earlier schemas up to date.
var sqliteUpgrades = []string{
	`ALTER TABLE refresh_tokens ADD COLUMN rotated BOOLEAN NOT NULL DEFAULT 0;`,
}

func initSQLite(d *sql.DB) error {
	for _, q := range sqliteSchema {
		if _, err := d.Exec(q); err != nil {
			return err
		}
	}
	for _, q := range sqliteUpgrades {
		if _, err := d.Exec(q); err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return err
		}
	}
	return nil
}

func classifySQLite(err error) constraint {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return constraintNone
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUnique
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return constraintForeignKey
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return constraintUnique
		case strings.Contains(msg, "FOREIGN KEY"):
			return constraintForeignKey
		}
	}
	return constraintNone
}
