package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

func pathNo(r *http.Request) (int64, error) {
	no, err := strconv.ParseInt(mux.Vars(r)["no"], 10, 64)
	if err != nil || no <= 0 {
		return 0, invalid("no must be a positive integer")
	}
	return no, nil
}

func created(w http.ResponseWriter, message string, no int64) {
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": message, "no": no})
}

// Employees

func (a *App) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.ListAccounts(r.Context(), mux.Vars(r)["status"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.DB.GetAccount(r.Context(), no)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *App) HandleGetEmployeeByEmail(w http.ResponseWriter, r *http.Request) {
	acc, err := a.DB.GetAccountByEmail(r.Context(), normalizeEmail(mux.Vars(r)["email"]))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *App) HandleGetEmployeeByPhone(w http.ResponseWriter, r *http.Request) {
	acc, err := a.DB.GetAccountByPhone(r.Context(), strings.TrimSpace(mux.Vars(r)["phone"]))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *App) HandleUpdateEmployeePassword(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := validPassword(in.Password); err != nil {
		a.fail(w, r, err)
		return
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.UpdateAccountPassword(r.Context(), no, hash); err != nil {
		a.fail(w, r, err)
		return
	}
	// A new password ends every existing session of the account.
	if err := a.DB.RevokeAllRefreshTokensForAccount(r.Context(), no); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Employee password updated")
}

func (a *App) HandleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in struct {
		FName  string `json:"fname"`
		LName  string `json:"lname"`
		Phone  string `json:"phone"`
		Gender string `json:"gender"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	acc := &Account{No: no, FName: strings.TrimSpace(in.FName), LName: strings.TrimSpace(in.LName), Phone: strings.TrimSpace(in.Phone), Gender: in.Gender}
	if err := a.DB.UpdateAccountProfile(r.Context(), acc); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Employee updated")
}

func (a *App) HandleUpdateEmployeeAll(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in struct {
		Email  string `json:"email"`
		FName  string `json:"fname"`
		LName  string `json:"lname"`
		RankID *int64 `json:"ranks_id"`
		Phone  string `json:"phone"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		a.fail(w, r, invalid("email is malformed"))
		return
	}
	acc := &Account{No: no, Email: email, FName: strings.TrimSpace(in.FName), LName: strings.TrimSpace(in.LName), RankID: in.RankID, Phone: strings.TrimSpace(in.Phone)}
	if err := a.DB.UpdateAccount(r.Context(), acc); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Employee updated")
}

func (a *App) HandleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.DeleteAccount(r.Context(), no); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Employee deleted")
}

// Ranks, types and froms share one set of handlers.

func lookupValue(w http.ResponseWriter, r *http.Request, kind LookupKind) (string, error) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		return "", err
	}
	v, _ := body[kind.Field()].(string)
	if v = strings.TrimSpace(v); v == "" {
		return "", invalid("%s is required", kind.Field())
	}
	return v, nil
}

func (a *App) HandleListLookups(kind LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := a.DB.ListLookups(r.Context(), kind)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (a *App) HandleGetLookup(kind LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		no, err := pathNo(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		l, err := a.DB.GetLookup(r.Context(), kind, no)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (a *App) HandleCreateLookup(kind LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := lookupValue(w, r, kind)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		l := &Lookup{Kind: kind, Value: v}
		if err := a.DB.CreateLookup(r.Context(), l); err != nil {
			a.fail(w, r, err)
			return
		}
		created(w, "New "+kind.Label()+" added", l.No)
	}
}

func (a *App) HandleUpdateLookup(kind LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		no, err := pathNo(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		v, err := lookupValue(w, r, kind)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := a.DB.UpdateLookup(r.Context(), &Lookup{Kind: kind, No: no, Value: v}); err != nil {
			a.fail(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, kind.Label()+" updated")
	}
}

func (a *App) HandleDeleteLookup(kind LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		no, err := pathNo(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := a.DB.DeleteLookup(r.Context(), kind, no); err != nil {
			a.fail(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, kind.Label()+" deleted")
	}
}

// Customers

type customerInput struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	TypeID   *int64 `json:"type_id"`
	FromID   *int64 `json:"from_id"`
	EmpID    *int64 `json:"emp_id"`
}

func (a *App) decodeCustomer(w http.ResponseWriter, r *http.Request) (*Customer, error) {
	var in customerInput
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	if in.ID = strings.TrimSpace(in.ID); in.ID == "" {
		return nil, invalid("id is required")
	}
	if in.EmpID == nil {
		no := accountNo(r.Context())
		in.EmpID = &no
	}
	return &Customer{ID: in.ID, Nickname: strings.TrimSpace(in.Nickname), TypeID: in.TypeID, FromID: in.FromID, EmpID: in.EmpID}, nil
}

func (a *App) HandleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.ListCustomers(r.Context(), nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleListCustomersByType(w http.ResponseWriter, r *http.Request) {
	typeNo, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.DB.ListCustomers(r.Context(), &typeNo)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.DB.GetCustomer(r.Context(), no)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *App) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := a.decodeCustomer(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.CreateCustomer(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	created(w, "New Customer added", c.No)
}

func (a *App) HandleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.decodeCustomer(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c.No = no
	if err := a.DB.UpdateCustomer(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Customer updated")
}

func (a *App) HandleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.DeleteCustomer(r.Context(), no); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Customer deleted")
}

// Stocks

type stockInput struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	LowPrice       float64 `json:"low_price"`
	UpPrice        float64 `json:"up_price"`
	DividendAmount float64 `json:"dividend_amount"`
	ClosingPrice   float64 `json:"closing_price"`
	Comment        string  `json:"comment"`
	EmpID          *int64  `json:"emp_id"`
}

func (a *App) decodeStock(w http.ResponseWriter, r *http.Request) (*Stock, error) {
	var in stockInput
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	if in.Name = strings.ToUpper(strings.TrimSpace(in.Name)); in.Name == "" {
		return nil, invalid("name is required")
	}
	if in.LowPrice < 0 || in.UpPrice < 0 || in.DividendAmount < 0 || in.ClosingPrice < 0 {
		return nil, invalid("prices must not be negative")
	}
	if in.UpPrice > 0 && in.LowPrice > in.UpPrice {
		return nil, invalid("low_price must not exceed up_price")
	}
	if in.EmpID == nil {
		no := accountNo(r.Context())
		in.EmpID = &no
	}
	return &Stock{
		Name:           in.Name,
		Type:           strings.TrimSpace(in.Type),
		LowPrice:       in.LowPrice,
		UpPrice:        in.UpPrice,
		DividendAmount: in.DividendAmount,
		ClosingPrice:   in.ClosingPrice,
		Comment:        in.Comment,
		EmpID:          in.EmpID,
	}, nil
}

func (a *App) HandleListStocks(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.ListStocks(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.DB.GetStock(r.Context(), no)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *App) HandleCreateStock(w http.ResponseWriter, r *http.Request) {
	st, err := a.decodeStock(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.CreateStock(r.Context(), st); err != nil {
		a.fail(w, r, err)
		return
	}
	created(w, "New Stock added", st.No)
}

func (a *App) HandleUpdateStock(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.decodeStock(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	st.No = no
	if err := a.DB.UpdateStock(r.Context(), st); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Stock updated")
}

func (a *App) HandleUpdateClosePrice(w http.ResponseWriter, r *http.Request) {
	name := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["name"]))
	var in struct {
		ClosingPrice *float64 `json:"closing_price"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.ClosingPrice == nil || *in.ClosingPrice < 0 {
		a.fail(w, r, invalid("closing_price must be a non-negative number"))
		return
	}
	if err := a.DB.UpdateClosePrice(r.Context(), name, *in.ClosingPrice); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Close price updated")
}

func (a *App) HandleDeleteStock(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.DB.DeleteStock(r.Context(), no); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Stock deleted")
}

// Logs

func (a *App) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.ListLogs(r.Context(), mux.Vars(r)["type"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	no, err := pathNo(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	e, err := a.DB.GetLog(r.Context(), no)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *App) HandleAddLog(w http.ResponseWriter, r *http.Request) {
	var e LogEntry
	if err := decodeJSON(w, r, &e); err != nil {
		a.fail(w, r, err)
		return
	}
	e.No = 0
	if strings.TrimSpace(e.Action) == "" {
		a.fail(w, r, invalid("action is required"))
		return
	}
	if e.EmpID == nil {
		no := accountNo(r.Context())
		e.EmpID = &no
	}
	if err := a.DB.CreateLog(r.Context(), &e); err != nil {
		a.fail(w, r, err)
		return
	}
	created(w, "New Log added", e.No)
}
