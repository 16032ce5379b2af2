// Package sqlxrepos implements the core repositories on Postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/incubaapp/incuba/core"
)

const uniqueViolation = "23505"

// trapNoRowsErr maps "no rows" to the domain's not found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// nullString stores empty strings as NULL.
func nullString(s string) null.String {
	return null.NewString(s, strings.TrimSpace(s) != "")
}

// where accumulates AND conditions. Every "?" of a condition binds the same arg.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// inTx runs fn inside a transaction. An executor that cannot begin one is
// already a transaction, so fn runs on it directly.
func inTx(ctx context.Context, exec core.DBExecutor, fn func(tx core.DBExecutor) error) (err error) {
	db, ok := exec.(core.DB)
	if !ok {
		return fn(exec)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
