package model

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "PROCESSING"
	StatusCheckedOut OrderStatus = "CHECKED_OUT"
	StatusReturned   OrderStatus = "RETURNED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusLost       OrderStatus = "LOST"
)

var nextStatuses = map[OrderStatus][]OrderStatus{
	StatusProcessing: {StatusCheckedOut, StatusCancelled},
	StatusCheckedOut: {StatusReturned, StatusLost},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, st := range nextStatuses[s] {
		if st == next {
			return true
		}
	}
	return false
}

// ConsumesCopy reports whether a copy is physically out of circulation
// in this status.
func (s OrderStatus) ConsumesCopy() bool {
	return s == StatusCheckedOut || s == StatusLost
}

func (s OrderStatus) IsTerminal() bool {
	return len(nextStatuses[s]) == 0
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch s := OrderStatus(strings.ToUpper(raw)); s {
	case StatusProcessing, StatusCheckedOut, StatusReturned, StatusCancelled, StatusLost:
		return s, true
	}
	return "", false
}

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Actor is the authenticated principal performing a request.
type Actor struct {
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Order struct {
	ID           int         `json:"-" db:"id"`
	OrderUid     string      `json:"orderUid" db:"order_uid"`
	Username     string      `json:"username" db:"username"`
	BookID       int         `json:"-" db:"book_id"`
	BookUid      string      `json:"bookUid" db:"book_uid"`
	BookName     string      `json:"bookName,omitempty" db:"book_name"`
	OrderDate    Date        `json:"orderDate" db:"order_date"`
	CheckoutDate NullDate    `json:"checkoutDate" db:"checkout_date"`
	DueDate      Date        `json:"dueDate" db:"due_date"`
	ReturnDate   NullDate    `json:"returnDate" db:"return_date"`
	Status       OrderStatus `json:"status" db:"status"`
}

type CreateOrderRequest struct {
	BookUid  string `json:"bookUid" validate:"required,uuid"`
	DueDate  Date   `json:"dueDate" validate:"required"`
	Username string `json:"-" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PROCESSING CHECKED_OUT RETURNED CANCELLED LOST"`
}

// OrdersFilter narrows ListOrders. Empty fields are not applied.
type OrdersFilter struct {
	Username string
	BookUid  string
	Status   OrderStatus
}

type Book struct {
	ID             int    `json:"-" db:"id"`
	BookUid        string `json:"bookUid" db:"book_uid"`
	Name           string `json:"name" db:"name"`
	Author         string `json:"author" db:"author"`
	ISBN           string `json:"isbn" db:"isbn"`
	TotalCopies    int    `json:"totalCopies" db:"total_copies"`
	AvailableCount int    `json:"availableCount" db:"available_count"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type User struct {
	ID       int    `json:"-" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
}

type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

const (
	EventOrderCreated       = "ORDER_CREATED"
	EventOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventOrderDeleted       = "ORDER_DELETED"
)

type OrderEvent struct {
	EventUid   string      `json:"eventUid" db:"event_uid"`
	Type       string      `json:"type" db:"event_type"`
	OrderUid   string      `json:"orderUid" db:"order_uid"`
	Username   string      `json:"username" db:"username"`
	BookUid    string      `json:"bookUid" db:"book_uid"`
	Status     OrderStatus `json:"status" db:"status"`
	OccurredAt time.Time   `json:"occurredAt" db:"occurred_at"`
}

// Date accepts the yyyy-mm-dd wire format.
type Date struct {
	time.Time `json:",inline"`
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) Scan(v interface{}) error {
	switch t := v.(type) {
	case time.Time:
		d.Time = t
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan date: unsupported type %T", v)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// NullDate is a nullable yyyy-mm-dd column rendered as null or a plain
// date string.
type NullDate struct {
	sql.NullTime
}

func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(time.DateOnly) + `"`), nil
}

func (d *NullDate) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		d.Valid = false
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return err
	}
	d.Time, d.Valid = t, true
	return nil
}
