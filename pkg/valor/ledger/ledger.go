// Package ledger keeps the manual record of personal transactions, goals and
// monthly budgets, and summarizes them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	Income     Type = "Income"
	Expense    Type = "Expense"
	Investment Type = "Investment"
)

var Types = []Type{Income, Expense, Investment}

// ParseType accepts the type name in any case.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("ledger: unknown transaction type %q", s)
}

// ARCA asset classes. Investments are booked under one of them.
const (
	ClassStocks        = "Ações"
	ClassRealEstate    = "Real Estate"
	ClassInternational = "Ativos Internacionais"
	ClassCash          = "Caixa"
)

var Classes = []string{ClassStocks, ClassRealEstate, ClassInternational, ClassCash}

// Productive classes count toward financial freedom.
var Productive = []string{ClassStocks, ClassRealEstate, ClassInternational}

type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date" validate:"required"`
	Type        Type            `json:"type" validate:"oneof=Income Expense Investment"`
	Category    string          `json:"category" validate:"required,max=64"`
	Subcategory string          `json:"subcategory,omitempty" validate:"max=64"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Note        string          `json:"note,omitempty" validate:"max=256"`
}

type Goal struct {
	Name     string          `json:"name" validate:"required"`
	Target   decimal.Decimal `json:"target" validate:"gt=0"`
	Deadline *time.Time      `json:"deadline,omitempty"`
}

// Budget is a monthly spending limit for one expense category.
type Budget struct {
	Category string          `json:"category" validate:"required"`
	Limit    decimal.Decimal `json:"limit" validate:"gt=0"`
}

// Filter narrows List. Zero fields match everything; To is exclusive.
type Filter struct {
	From     time.Time
	To       time.Time
	Type     Type
	Category string
}

func (f Filter) Match(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Date.Before(f.To) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, t.Category) {
		return false
	}
	return true
}

var ErrNotFound = errors.New("ledger: not found")

// Store persists ledger records. List returns transactions ordered by date
// descending.
type Store interface {
	Add(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	List(ctx context.Context, f Filter) ([]Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SaveGoal(ctx context.Context, g Goal) error
	Goals(ctx context.Context) ([]Goal, error)
	SaveBudget(ctx context.Context, b Budget) error
	Budgets(ctx context.Context) ([]Budget, error)
	Close() error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Validate checks a record before it is stored.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("ledger: invalid %s: failed %q", ve[0].Field(), ve[0].Tag())
		}
		return fmt.Errorf("ledger: %w", err)
	}
	if t, ok := v.(Transaction); ok && t.Type == Investment && !isClass(t.Subcategory) {
		return fmt.Errorf("ledger: investment class must be one of %s", strings.Join(Classes, ", "))
	}
	return nil
}

func isClass(s string) bool {
	for _, c := range Classes {
		if s == c {
			return true
		}
	}
	return false
}

// NewTransaction fills the id, truncates the date to the day and books
// investments under their ARCA class.
func NewTransaction(date time.Time, typ Type, category, sub string, amount decimal.Decimal, note string) (Transaction, error) {
	t := Transaction{
		ID:          uuid.New(),
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Type:        typ,
		Category:    strings.TrimSpace(category),
		Subcategory: strings.TrimSpace(sub),
		Amount:      amount,
		Note:        strings.TrimSpace(note),
	}
	if typ == Investment {
		if t.Subcategory == "" {
			t.Subcategory = t.Category
		}
		if t.Category == "" {
			t.Category = t.Subcategory
		}
	}
	if err := Validate(t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
