package main

import (
	"encoding/json"
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Account is a login-capable employee. The password hash never leaves the
// server.
type Account struct {
	No          int64     `json:"no"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	FName       string    `json:"fname"`
	LName       string    `json:"lname"`
	Phone       string    `json:"phone"`
	Gender      string    `json:"gender"`
	RankID      *int64    `json:"ranks_id"`
	Status      string    `json:"status"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

// Profile is the part of an Account a client sees after login.
type Profile struct {
	No     int64  `json:"no"`
	Email  string `json:"email"`
	FName  string `json:"fname"`
	LName  string `json:"lname"`
	RankID *int64 `json:"ranks_id"`
	Status string `json:"status"`
}

func (a *Account) Profile() Profile {
	return Profile{No: a.No, Email: a.Email, FName: a.FName, LName: a.LName, RankID: a.RankID, Status: a.Status}
}

// RefreshToken is the server-side record of an issued refresh token. Only
// the SHA-256 digest of the raw token is stored.
type RefreshToken struct {
	ID        int64
	TokenHash string
	AccountNo int64
	ExpiresAt time.Time
	Revoked   bool
	// Rotated marks a token revoked by refresh rather than by logout.
	Rotated   bool
	CreatedAt time.Time
}

// LookupKind selects one of the single-column reference tables.
type LookupKind int

const (
	KindRank LookupKind = iota
	KindType
	KindFrom
)

func (k LookupKind) table() string {
	switch k {
	case KindRank:
		return "ranks"
	case KindType:
		return "types"
	default:
		return "froms"
	}
}

// Field is the JSON name of the value column.
func (k LookupKind) Field() string {
	switch k {
	case KindRank:
		return "rank"
	case KindType:
		return "type"
	default:
		return "from"
	}
}

// Label is used in client-facing messages.
func (k LookupKind) Label() string {
	switch k {
	case KindRank:
		return "Rank"
	case KindType:
		return "Type"
	default:
		return "From"
	}
}

// Lookup is a row of ranks, types or froms.
type Lookup struct {
	Kind        LookupKind
	No          int64
	Value       string
	CreatedDate time.Time
	UpdatedDate time.Time
}

func (l Lookup) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"no":           l.No,
		l.Kind.Field(): l.Value,
		"created_date": l.CreatedDate,
		"updated_date": l.UpdatedDate,
	})
}

type Customer struct {
	No          int64     `json:"no"`
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	TypeID      *int64    `json:"type_id"`
	FromID      *int64    `json:"from_id"`
	EmpID       *int64    `json:"emp_id"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

type Stock struct {
	No             int64     `json:"no"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	LowPrice       float64   `json:"low_price"`
	UpPrice        float64   `json:"up_price"`
	DividendAmount float64   `json:"dividend_amount"`
	ClosingPrice   float64   `json:"closing_price"`
	Comment        string    `json:"comment"`
	EmpID          *int64    `json:"emp_id"`
	CreatedDate    time.Time `json:"created_date"`
	UpdatedDate    time.Time `json:"updated_date"`
}

// LogEntry is an append-only audit row.
type LogEntry struct {
	No             int64     `json:"no"`
	StocksDetailID *int64    `json:"stocks_detail_id"`
	StocksID       *int64    `json:"stocks_id"`
	TransactionsID *int64    `json:"transactions_id"`
	UsersID        *int64    `json:"users_id"`
	PortsID        *int64    `json:"ports_id"`
	FormID         *int64    `json:"form_id"`
	Type           string    `json:"type"`
	Action         string    `json:"action"`
	Detail         string    `json:"detail"`
	EmpID          *int64    `json:"emp_id"`
	Time           time.Time `json:"time"`
}
