package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the flat row shape of the holdings table: one category
// discriminator plus nullable variant columns.
type Holding struct {
	HoldingID   string          `db:"holding_id"`
	UserID      int64           `db:"user_id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	SubGroup    sql.NullString  `db:"sub_group"`
	Institution sql.NullString  `db:"institution"`
	ValueInEur  decimal.Decimal `db:"value_in_eur"`
	LastUpdated time.Time       `db:"last_updated"`

	InterestRate  decimal.NullDecimal `db:"interest_rate"`
	Currency      sql.NullString      `db:"currency"`
	OriginalValue decimal.NullDecimal `db:"original_value"`

	Ticker        sql.NullString      `db:"ticker"`
	Quantity      decimal.NullDecimal `db:"quantity"`
	PurchasePrice decimal.NullDecimal `db:"purchase_price"`
	CurrentPrice  decimal.NullDecimal `db:"current_price"`
	Listed        sql.NullBool        `db:"listed"`
	Geography     sql.NullString      `db:"geography"`

	PropertyType sql.NullString      `db:"property_type"`
	CurrentValue decimal.NullDecimal `db:"current_value"`
}
