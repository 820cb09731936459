package db

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const accountColumns = `id, user_id, bank_name, contact_channel, account_number,
	net_banking_username, net_banking_secret, mobile_banking_username, mobile_banking_secret,
	pin_secret, custom_secrets, created_at, updated_at`

type customSecretRow struct {
	Label      string `json:"label"`
	ValueToken string `json:"value_token"`
}

func encodeCustomSecrets(in []entity.CustomSecret) ([]byte, error) {
	rows := make([]customSecretRow, 0, len(in))
	for _, cs := range in {
		rows = append(rows, customSecretRow(cs))
	}
	return json.Marshal(rows)
}

func decodeCustomSecrets(raw []byte) ([]entity.CustomSecret, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []customSecretRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]entity.CustomSecret, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.CustomSecret(r))
	}
	return out, nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var (
		a      entity.Account
		custom []byte
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.BankName, &a.ContactChannel, &a.AccountNumber,
		&a.NetBankingUsername, &a.NetBankingSecret, &a.MobileBankingUsername, &a.MobileBankingSecret,
		&a.PinSecret, &custom, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	cs, err := decodeCustomSecrets(custom)
	if err != nil {
		return nil, err
	}
	a.CustomSecrets = cs

	return &a, nil
}

func (s *DB) CountAccounts(ctx context.Context, userID int64) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountAccounts")
	defer func() { s.endSpan(span, err) }()

	var n int
	if err = s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM vault_accounts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, s.mapError(err)
	}
	return n, nil
}

func (s *DB) ListAccountSummaries(ctx context.Context, userID int64) (_ []entity.AccountSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListAccountSummaries")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT id, bank_name, account_number FROM vault_accounts WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AccountSummary, error) {
		var sum entity.AccountSummary
		err := row.Scan(&sum.ID, &sum.BankName, &sum.AccountNumber)
		return sum, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) ListAccounts(ctx context.Context, userID int64) (_ []entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+accountColumns+` FROM vault_accounts WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Account, error) {
		a, err := scanAccount(row)
		if err != nil {
			return entity.Account{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) GetAccount(ctx context.Context, userID int64, accountID string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	acc, err := scanAccount(s.conn.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM vault_accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return acc, nil
}

func (s *DB) CreateAccount(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	custom, err := encodeCustomSecrets(acc.CustomSecrets)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx,
		`INSERT INTO vault_accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		acc.ID, acc.UserID, acc.BankName, acc.ContactChannel, acc.AccountNumber,
		acc.NetBankingUsername, acc.NetBankingSecret, acc.MobileBankingUsername, acc.MobileBankingSecret,
		acc.PinSecret, custom, acc.CreatedAt, acc.UpdatedAt,
	)
	return s.mapError(err)
}

// UpdateAccount locks the row for the duration of mutate, so concurrent
// updates of one account serialize instead of losing writes.
func (s *DB) UpdateAccount(
	ctx context.Context,
	userID int64,
	accountID string,
	mutate func(entity.Account) (entity.Account, error),
) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "UpdateAccount")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	current, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM vault_accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		accountID, userID,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	next, err := mutate(*current)
	if err != nil {
		return nil, err
	}

	custom, err := encodeCustomSecrets(next.CustomSecrets)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		`UPDATE vault_accounts SET
			bank_name = $3, contact_channel = $4, account_number = $5,
			net_banking_username = $6, net_banking_secret = $7,
			mobile_banking_username = $8, mobile_banking_secret = $9,
			pin_secret = $10, custom_secrets = $11, updated_at = $12
		WHERE id = $1 AND user_id = $2`,
		accountID, userID, next.BankName, next.ContactChannel, next.AccountNumber,
		next.NetBankingUsername, next.NetBankingSecret, next.MobileBankingUsername, next.MobileBankingSecret,
		next.PinSecret, custom, next.UpdatedAt,
	); err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &next, nil
}

func (s *DB) DeleteAccount(ctx context.Context, userID int64, accountID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM vault_accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
