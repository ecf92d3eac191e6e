package recipecost

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units (1250 = 12.50).
type Cents int64

func NewCentsFromStr(str string) (Cents, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return 0, &InvalidInputError{Field: "amount", Value: str, Reason: "not a decimal number"}
	}
	if !d.Equal(d.Round(2)) {
		return 0, &InvalidInputError{Field: "amount", Value: str, Reason: "more than two fractional digits"}
	}
	return Cents(d.Shift(2).IntPart()), nil
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c))
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c *Cents) Scan(src any) error {
	iSrc, ok := src.(int64)
	if !ok {
		return errors.New("src must be int64")
	}
	*c = Cents(iSrc)
	return nil
}

func (c Cents) Value() (driver.Value, error) {
	return int64(c), nil
}
