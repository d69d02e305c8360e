package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
)

const runColumns = `id, account_id, type, source, input_text, output_text, output_json,
	params, model, token_in, token_out, token_total, latency_ms, created_at`

// CreateRun inserts a run. ID and CreatedAt are filled in when empty.
func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if run == nil || run.AccountID == "" || !run.Type.Valid() {
		return ErrInvalidInput
	}

	if run.ID == "" {
		run.ID = generateID("run")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Params) == 0 {
		run.Params = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), run.ID, run.AccountID, string(run.Type), run.Source, run.InputText,
		ptrValue(run.OutputText), jsonText(run.OutputJSON), string(run.Params),
		run.Model, run.TokenIn, run.TokenOut, run.TokenTotal, run.LatencyMS,
		formatTime(run.CreatedAt))
	return translateError(err)
}

// GetRun returns one of the account's runs or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, accountID, id string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+runColumns+` FROM runs WHERE id = ? AND account_id = ?
	`), id, accountID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListRuns returns runs matching filter, newest first.
func (s *Store) ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE account_id = ?`
	args := []any{filter.AccountID}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query += ` AND (LOWER(input_text) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(output_text, '')) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	// Collection membership goes through collections so that another
	// account's collection id never matches.
	if filter.CollectionID != "" {
		query += ` AND id IN (
			SELECT ci.run_id FROM collection_items ci
			JOIN collections c ON c.id = ci.collection_id
			WHERE ci.collection_id = ? AND c.account_id = ? AND ci.run_id IS NOT NULL)`
		args = append(args, filter.CollectionID, filter.AccountID)
	} else if filter.NotInCollection {
		query += ` AND id NOT IN (
			SELECT ci.run_id FROM collection_items ci
			JOIN collections c ON c.id = ci.collection_id
			WHERE c.account_id = ? AND ci.run_id IS NOT NULL)`
		args = append(args, filter.AccountID)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRunsBefore removes runs created before cutoff. Collection items keep
// their copy and lose the link.
func (s *Store) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	ts := formatTime(cutoff)
	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE collection_items SET run_id = NULL
		WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)
	`), ts); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM runs WHERE created_at < ?`), ts)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run        models.Run
		runType    string
		outputText sql.NullString
		outputJSON sql.NullString
		params     string
		createdAt  string
	)
	err := row.Scan(&run.ID, &run.AccountID, &runType, &run.Source, &run.InputText,
		&outputText, &outputJSON, &params, &run.Model, &run.TokenIn, &run.TokenOut,
		&run.TokenTotal, &run.LatencyMS, &createdAt)
	if err != nil {
		return nil, err
	}

	run.Type = models.RunType(runType)
	run.OutputText = stringPtr(outputText)
	run.OutputJSON = rawJSON(outputJSON)
	run.Params = []byte(params)
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
