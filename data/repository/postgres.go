package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/converter/dbConverter"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model/dbModel"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Postgres struct {
	db  *sqlx.DB
	cfg *config.Config
}

func NewPostgres(cfg *config.Config, db *sqlx.DB) *Postgres {
	return &Postgres{db: db, cfg: cfg}
}

func (r *Postgres) RegUser(ctx context.Context, chatID int64) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO users(chat_id) VALUES($1)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING user_id
	`

	slog.Debug("RegUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("RegUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("RegUser completed", slog.String("rqID", rqID))
		}
	}()

	err = r.db.QueryRowContext(ctx, query, chatID).Scan(&userID)
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) GetUserID(ctx context.Context, chatID int64) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT user_id FROM users WHERE chat_id = $1`

	slog.Debug("GetUserID start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetUserID failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUserID completed", slog.String("rqID", rqID))
		}
	}()

	err = r.db.QueryRowContext(ctx, query, chatID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	return userID, nil
}

const holdingColumns = `
	holding_id, user_id, name, category, sub_group, institution, value_in_eur, last_updated,
	interest_rate, currency, original_value,
	ticker, quantity, purchase_price, current_price, listed, geography,
	property_type, current_value
`

func (r *Postgres) getHoldings(ctx context.Context, query string, args ...any) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("getHoldings start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("getHoldings failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("getHoldings completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var row dbModel.Holding
		err = rows.StructScan(&row)
		if err != nil {
			return nil, err
		}

		holding, err := dbConverter.ConvertHolding(row)
		if err != nil {
			slog.Warn("skipping unreadable holding row", slog.String("rqID", rqID), slog.String("holdingID", row.HoldingID), slog.String("err", err.Error()))
			continue
		}
		holdings = append(holdings, holding)
	}

	return holdings, rows.Err()
}

func (r *Postgres) GetHoldings(ctx context.Context, userID int64) ([]model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE user_id = $1
		ORDER BY category, name
	`

	return r.getHoldings(ctx, query, userID)
}

func (r *Postgres) GetAllHoldings(ctx context.Context) ([]model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		ORDER BY category, name
	`

	return r.getHoldings(ctx, query)
}

func (r *Postgres) InsertHolding(ctx context.Context, userID int64, h model.Holding) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertHolding"
	query := `
		INSERT INTO holdings(
			holding_id, user_id, name, category, sub_group, value_in_eur, last_updated,
			interest_rate, currency, original_value,
			ticker, quantity, purchase_price, current_price, listed, geography,
			property_type, current_value
		)
		VALUES (
			:holding_id, :user_id, :name, :category, :sub_group, :value_in_eur, :last_updated,
			:interest_rate, :currency, :original_value,
			:ticker, :quantity, :purchase_price, :current_price, :listed, :geography,
			:property_type, :current_value
		)
	`

	slog.Debug("InsertHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	row := dbConverter.ConvertToRow(h, userID)

	_, err = r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return ErrAlreadyExists
			}
		}
		return err
	}

	return nil
}

// UpdateHoldingValue persists a fresh EUR snapshot used as the fallback value
// when live pricing is unavailable.
func (r *Postgres) UpdateHoldingValue(ctx context.Context, holdingID string, valueInEur decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateHoldingValue"
	query := `
		UPDATE holdings
		SET value_in_eur = $1, last_updated = now()
		WHERE holding_id = $2
	`

	slog.Debug("UpdateHoldingValue start", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID))
	defer func() {
		if err != nil {
			slog.Error("UpdateHoldingValue failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateHoldingValue completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.db.ExecContext(ctx, query, valueInEur, holdingID)
	return err
}

func (r *Postgres) DeleteHolding(ctx context.Context, holdingID string, userID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHolding"
	query := `
		DELETE FROM holdings
		WHERE holding_id = $1
		AND user_id = $2
	`

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID))
	defer func() {
		if err != nil {
			slog.Error("DeleteHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.db.ExecContext(ctx, query, holdingID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Postgres) GetReportingCurrency(ctx context.Context, chatID int64) (currencyCode string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetReportingCurrency"
	query := `SELECT COALESCE(reporting_currency, '') FROM users WHERE chat_id = $1`

	slog.Debug("GetReportingCurrency start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetReportingCurrency failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetReportingCurrency completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.db.QueryRowContext(ctx, query, chatID).Scan(&currencyCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	return currencyCode, nil
}

func (r *Postgres) SetReportingCurrency(ctx context.Context, chatID int64, currencyCode string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.SetReportingCurrency"
	query := `UPDATE users SET reporting_currency = $1 WHERE chat_id = $2`

	slog.Debug("SetReportingCurrency start", slog.String("rqID", rqID), slog.String("op", op), slog.String("currency", currencyCode))
	defer func() {
		if err != nil {
			slog.Error("SetReportingCurrency failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("SetReportingCurrency completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.db.ExecContext(ctx, query, currencyCode, chatID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
