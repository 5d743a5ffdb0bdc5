package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DB is the credential store and the back-office tables behind it. Lookups
// that find nothing return an error wrapping ErrNotFound; writes that hit a
// unique constraint return one wrapping ErrDuplicateIdentity.
type DB interface {
	Ping(ctx context.Context) error
	Close() error

	// Account operations
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, no int64) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListAccounts(ctx context.Context, status string) ([]*Account, error)
	UpdateAccountPassword(ctx context.Context, no int64, hash string) error
	UpdateAccountProfile(ctx context.Context, a *Account) error
	UpdateAccount(ctx context.Context, a *Account) error
	DeleteAccount(ctx context.Context, no int64) error

	// Token operations
	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldHash string, next *RefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokensForAccount(ctx context.Context, accountNo int64) error

	// Ranks, types and froms
	ListLookups(ctx context.Context, kind LookupKind) ([]Lookup, error)
	GetLookup(ctx context.Context, kind LookupKind, no int64) (*Lookup, error)
	CreateLookup(ctx context.Context, l *Lookup) error
	UpdateLookup(ctx context.Context, l *Lookup) error
	DeleteLookup(ctx context.Context, kind LookupKind, no int64) error

	ListCustomers(ctx context.Context, typeID *int64) ([]*Customer, error)
	GetCustomer(ctx context.Context, no int64) (*Customer, error)
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, no int64) error

	ListStocks(ctx context.Context) ([]*Stock, error)
	GetStock(ctx context.Context, no int64) (*Stock, error)
	CreateStock(ctx context.Context, s *Stock) error
	UpdateStock(ctx context.Context, s *Stock) error
	UpdateClosePrice(ctx context.Context, name string, price float64) error
	DeleteStock(ctx context.Context, no int64) error

	ListLogs(ctx context.Context, logType string) ([]*LogEntry, error)
	GetLog(ctx context.Context, no int64) (*LogEntry, error)
	CreateLog(ctx context.Context, e *LogEntry) error
}

type constraint int

const (
	constraintNone constraint = iota
	constraintUnique
	constraintForeignKey
)

// dialect carries what differs between the SQL backends: placeholder syntax
// and how constraint violations surface from the driver.
type dialect struct {
	name     string
	rebind   func(query string) string
	classify func(err error) constraint
}

// questionMarks leaves ? placeholders as they are.
func questionMarks(q string) string { return q }

// dollarNumbers rewrites ? placeholders to $1, $2, ...
func dollarNumbers(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// SQLDB implements DB over database/sql. The pool is shared by all requests.
type SQLDB struct {
	db *sql.DB
	d  dialect
}

func (s *SQLDB) q(query string) string { return s.d.rebind(query) }

func (s *SQLDB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLDB) Close() error                   { return s.db.Close() }

// writeErr translates constraint violations into the error taxonomy.
func (s *SQLDB) writeErr(err error, what, op string) error {
	switch s.d.classify(err) {
	case constraintUnique:
		return duplicate(what)
	case constraintForeignKey:
		return invalid("referenced record does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(what)
	}
	return nil
}

// withTx commits when fn succeeds and rolls back otherwise.
func (s *SQLDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func now() time.Time { return time.Now().UTC() }

// Accounts

const accountCols = `no,email,password,fname,lname,phone,gender,ranks_id,status,created_date,updated_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	if err := row.Scan(&a.No, &a.Email, &a.Password, &a.FName, &a.LName, &a.Phone, &a.Gender, &a.RankID, &a.Status, &a.CreatedDate, &a.UpdatedDate); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLDB) CreateAccount(ctx context.Context, a *Account) error {
	a.CreatedDate, a.UpdatedDate = now(), now()
	if a.Status == "" {
		a.Status = StatusActive
	}
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO employees(email,password,fname,lname,phone,gender,ranks_id,status,created_date,updated_date) VALUES(?,?,?,?,?,?,?,?,?,?) RETURNING no`),
		a.Email, a.Password, a.FName, a.LName, a.Phone, a.Gender, a.RankID, a.Status, a.CreatedDate, a.UpdatedDate).Scan(&a.No)
	if err != nil {
		return s.writeErr(err, "Email", "insert employee")
	}
	return nil
}

func (s *SQLDB) getAccount(ctx context.Context, where string, arg any) (*Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, s.q(`SELECT `+accountCols+` FROM employees WHERE `+where+` = ?`), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Employee")
	}
	if err != nil {
		return nil, fmt.Errorf("select employee: %w", err)
	}
	return a, nil
}

func (s *SQLDB) GetAccount(ctx context.Context, no int64) (*Account, error) {
	return s.getAccount(ctx, "no", no)
}

func (s *SQLDB) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.getAccount(ctx, "email", email)
}

func (s *SQLDB) GetAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	return s.getAccount(ctx, "phone", phone)
}

func (s *SQLDB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.q(`SELECT EXISTS(SELECT 1 FROM employees WHERE email = ?)`), email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

func (s *SQLDB) ListAccounts(ctx context.Context, status string) ([]*Account, error) {
	query, args := `SELECT `+accountCols+` FROM employees`, []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query+` ORDER BY no`), args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()
	out := []*Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLDB) UpdateAccountPassword(ctx context.Context, no int64, hash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE employees SET password = ?, updated_date = ? WHERE no = ?`), hash, now(), no)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return affected(res, "Employee")
}

func (s *SQLDB) UpdateAccountProfile(ctx context.Context, a *Account) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE employees SET fname = ?, lname = ?, phone = ?, gender = ?, updated_date = ? WHERE no = ?`),
		a.FName, a.LName, a.Phone, a.Gender, now(), a.No)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return affected(res, "Employee")
}

func (s *SQLDB) UpdateAccount(ctx context.Context, a *Account) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE employees SET email = ?, fname = ?, lname = ?, ranks_id = ?, phone = ?, updated_date = ? WHERE no = ?`),
		a.Email, a.FName, a.LName, a.RankID, a.Phone, now(), a.No)
	if err != nil {
		return s.writeErr(err, "Email", "update employee")
	}
	return affected(res, "Employee")
}

func (s *SQLDB) DeleteAccount(ctx context.Context, no int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM refresh_tokens WHERE employee_id = ?`), no); err != nil {
			return fmt.Errorf("delete refresh tokens: %w", err)
		}
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM employees WHERE no = ?`), no)
		if err != nil {
			return fmt.Errorf("delete employee: %w", err)
		}
		return affected(res, "Employee")
	})
}

// Refresh tokens

func (s *SQLDB) insertRefreshToken(ctx context.Context, ex interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, t *RefreshToken) error {
	t.CreatedAt = now()
	err := ex.QueryRowContext(ctx, s.q(`INSERT INTO refresh_tokens(token_hash,employee_id,expires_at,revoked,created_at) VALUES(?,?,?,?,?) RETURNING id`),
		t.TokenHash, t.AccountNo, t.ExpiresAt.UTC(), false, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return s.writeErr(err, "Refresh token", "insert refresh token")
	}
	return nil
}

func (s *SQLDB) CreateRefreshToken(ctx context.Context, t *RefreshToken) error {
	return s.insertRefreshToken(ctx, s.db, t)
}

func (s *SQLDB) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id,token_hash,employee_id,expires_at,revoked,rotated,created_at FROM refresh_tokens WHERE token_hash = ?`), tokenHash).
		Scan(&t.ID, &t.TokenHash, &t.AccountNo, &t.ExpiresAt, &t.Revoked, &t.Rotated, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Refresh token")
	}
	if err != nil {
		return nil, fmt.Errorf("select refresh token: %w", err)
	}
	return &t, nil
}

// RotateRefreshToken revokes oldHash and stores next in one transaction. If
// oldHash was revoked concurrently the rotation fails with ErrSessionExpired.
func (s *SQLDB) RotateRefreshToken(ctx context.Context, oldHash string, next *RefreshToken) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE refresh_tokens SET revoked = ?, rotated = ? WHERE token_hash = ? AND revoked = ?`), true, true, oldHash, false)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrSessionExpired
		}
		return s.insertRefreshToken(ctx, tx, next)
	})
}

// RevokeRefreshToken is idempotent: unknown or already revoked tokens are not an error.
func (s *SQLDB) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE refresh_tokens SET revoked = ? WHERE token_hash = ?`), true, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *SQLDB) RevokeAllRefreshTokensForAccount(ctx context.Context, accountNo int64) error {
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE refresh_tokens SET revoked = ? WHERE employee_id = ?`), true, accountNo); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// Lookups

func (s *SQLDB) ListLookups(ctx context.Context, kind LookupKind) ([]Lookup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT no,name,created_date,updated_date FROM `+kind.table()+` ORDER BY no`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.table(), err)
	}
	defer rows.Close()
	out := []Lookup{}
	for rows.Next() {
		l := Lookup{Kind: kind}
		if err := rows.Scan(&l.No, &l.Value, &l.CreatedDate, &l.UpdatedDate); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind.table(), err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLDB) GetLookup(ctx context.Context, kind LookupKind, no int64) (*Lookup, error) {
	l := Lookup{Kind: kind}
	err := s.db.QueryRowContext(ctx, s.q(`SELECT no,name,created_date,updated_date FROM `+kind.table()+` WHERE no = ?`), no).
		Scan(&l.No, &l.Value, &l.CreatedDate, &l.UpdatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind.Label())
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind.table(), err)
	}
	return &l, nil
}

func (s *SQLDB) CreateLookup(ctx context.Context, l *Lookup) error {
	l.CreatedDate, l.UpdatedDate = now(), now()
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO `+l.Kind.table()+`(name,created_date,updated_date) VALUES(?,?,?) RETURNING no`),
		l.Value, l.CreatedDate, l.UpdatedDate).Scan(&l.No)
	if err != nil {
		return s.writeErr(err, l.Kind.Label(), "insert "+l.Kind.table())
	}
	return nil
}

func (s *SQLDB) UpdateLookup(ctx context.Context, l *Lookup) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE `+l.Kind.table()+` SET name = ?, updated_date = ? WHERE no = ?`), l.Value, now(), l.No)
	if err != nil {
		return s.writeErr(err, l.Kind.Label(), "update "+l.Kind.table())
	}
	return affected(res, l.Kind.Label())
}

func (s *SQLDB) DeleteLookup(ctx context.Context, kind LookupKind, no int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM `+kind.table()+` WHERE no = ?`), no)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind.table(), err)
	}
	return affected(res, kind.Label())
}

// Customers

const customerCols = `no,id,nickname,type_id,from_id,emp_id,created_date,updated_date`

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	if err := row.Scan(&c.No, &c.ID, &c.Nickname, &c.TypeID, &c.FromID, &c.EmpID, &c.CreatedDate, &c.UpdatedDate); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLDB) ListCustomers(ctx context.Context, typeID *int64) ([]*Customer, error) {
	query, args := `SELECT `+customerCols+` FROM customers`, []any{}
	if typeID != nil {
		query += ` WHERE type_id = ?`
		args = append(args, *typeID)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query+` ORDER BY no`), args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	out := []*Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLDB) GetCustomer(ctx context.Context, no int64) (*Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, s.q(`SELECT `+customerCols+` FROM customers WHERE no = ?`), no))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Customer")
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (s *SQLDB) CreateCustomer(ctx context.Context, c *Customer) error {
	c.CreatedDate, c.UpdatedDate = now(), now()
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO customers(id,nickname,type_id,from_id,emp_id,created_date,updated_date) VALUES(?,?,?,?,?,?,?) RETURNING no`),
		c.ID, c.Nickname, c.TypeID, c.FromID, c.EmpID, c.CreatedDate, c.UpdatedDate).Scan(&c.No)
	if err != nil {
		return s.writeErr(err, "Customer ID", "insert customer")
	}
	return nil
}

func (s *SQLDB) UpdateCustomer(ctx context.Context, c *Customer) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE customers SET id = ?, nickname = ?, type_id = ?, from_id = ?, emp_id = ?, updated_date = ? WHERE no = ?`),
		c.ID, c.Nickname, c.TypeID, c.FromID, c.EmpID, now(), c.No)
	if err != nil {
		return s.writeErr(err, "Customer ID", "update customer")
	}
	return affected(res, "Customer")
}

func (s *SQLDB) DeleteCustomer(ctx context.Context, no int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM customers WHERE no = ?`), no)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return affected(res, "Customer")
}

// Stocks

const stockCols = `no,name,type,low_price,up_price,dividend_amount,closing_price,comment,emp_id,created_date,updated_date`

func scanStock(row rowScanner) (*Stock, error) {
	var st Stock
	if err := row.Scan(&st.No, &st.Name, &st.Type, &st.LowPrice, &st.UpPrice, &st.DividendAmount, &st.ClosingPrice, &st.Comment, &st.EmpID, &st.CreatedDate, &st.UpdatedDate); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLDB) ListStocks(ctx context.Context) ([]*Stock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stockCols+` FROM stocks ORDER BY no`)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()
	out := []*Stock{}
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLDB) GetStock(ctx context.Context, no int64) (*Stock, error) {
	st, err := scanStock(s.db.QueryRowContext(ctx, s.q(`SELECT `+stockCols+` FROM stocks WHERE no = ?`), no))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Stock")
	}
	if err != nil {
		return nil, fmt.Errorf("select stock: %w", err)
	}
	return st, nil
}

func (s *SQLDB) CreateStock(ctx context.Context, st *Stock) error {
	st.CreatedDate, st.UpdatedDate = now(), now()
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO stocks(name,type,low_price,up_price,dividend_amount,closing_price,comment,emp_id,created_date,updated_date) VALUES(?,?,?,?,?,?,?,?,?,?) RETURNING no`),
		st.Name, st.Type, st.LowPrice, st.UpPrice, st.DividendAmount, st.ClosingPrice, st.Comment, st.EmpID, st.CreatedDate, st.UpdatedDate).Scan(&st.No)
	if err != nil {
		return s.writeErr(err, "Stock name", "insert stock")
	}
	return nil
}

func (s *SQLDB) UpdateStock(ctx context.Context, st *Stock) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE stocks SET name = ?, type = ?, low_price = ?, up_price = ?, dividend_amount = ?, closing_price = ?, comment = ?, emp_id = ?, updated_date = ? WHERE no = ?`),
		st.Name, st.Type, st.LowPrice, st.UpPrice, st.DividendAmount, st.ClosingPrice, st.Comment, st.EmpID, now(), st.No)
	if err != nil {
		return s.writeErr(err, "Stock name", "update stock")
	}
	return affected(res, "Stock")
}

func (s *SQLDB) UpdateClosePrice(ctx context.Context, name string, price float64) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE stocks SET closing_price = ?, updated_date = ? WHERE name = ?`), price, now(), name)
	if err != nil {
		return fmt.Errorf("update close price: %w", err)
	}
	return affected(res, "Stock")
}

func (s *SQLDB) DeleteStock(ctx context.Context, no int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM stocks WHERE no = ?`), no)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	return affected(res, "Stock")
}

// Logs

const logCols = `no,stocks_detail_id,stocks_id,transactions_id,users_id,ports_id,form_id,type,action,detail,emp_id,time`

func scanLog(row rowScanner) (*LogEntry, error) {
	var e LogEntry
	if err := row.Scan(&e.No, &e.StocksDetailID, &e.StocksID, &e.TransactionsID, &e.UsersID, &e.PortsID, &e.FormID, &e.Type, &e.Action, &e.Detail, &e.EmpID, &e.Time); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLDB) ListLogs(ctx context.Context, logType string) ([]*LogEntry, error) {
	query, args := `SELECT `+logCols+` FROM logs`, []any{}
	if logType != "" {
		query += ` WHERE type = ?`
		args = append(args, logType)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query+` ORDER BY no`), args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()
	out := []*LogEntry{}
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLDB) GetLog(ctx context.Context, no int64) (*LogEntry, error) {
	e, err := scanLog(s.db.QueryRowContext(ctx, s.q(`SELECT `+logCols+` FROM logs WHERE no = ?`), no))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Log")
	}
	if err != nil {
		return nil, fmt.Errorf("select log: %w", err)
	}
	return e, nil
}

func (s *SQLDB) CreateLog(ctx context.Context, e *LogEntry) error {
	if e.Time.IsZero() {
		e.Time = now()
	}
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO logs(stocks_detail_id,stocks_id,transactions_id,users_id,ports_id,form_id,type,action,detail,emp_id,time) VALUES(?,?,?,?,?,?,?,?,?,?,?) RETURNING no`),
		e.StocksDetailID, e.StocksID, e.TransactionsID, e.UsersID, e.PortsID, e.FormID, e.Type, e.Action, e.Detail, e.EmpID, e.Time.UTC()).Scan(&e.No)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}
