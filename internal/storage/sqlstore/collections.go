package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
)

// ListCollections returns the account's collections with item counts, newest first.
func (s *Store) ListCollections(ctx context.Context, accountID string) ([]*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT c.id, c.name, c.created_at, COUNT(ci.id)
		FROM collections c
		LEFT JOIN collection_items ci ON ci.collection_id = c.id
		WHERE c.account_id = ?
		GROUP BY c.id, c.name, c.created_at
		ORDER BY c.created_at DESC
	`), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []*models.Collection{}
	for rows.Next() {
		c := &models.Collection{AccountID: accountID}
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt, &c.ItemCount); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// CreateCollection inserts a collection, filling in ID and CreatedAt.
func (s *Store) CreateCollection(ctx context.Context, c *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if c == nil || c.AccountID == "" || c.Name == "" {
		return ErrInvalidInput
	}

	c.ID = generateID("col")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO collections (id, account_id, name, created_at) VALUES (?, ?, ?, ?)
	`), c.ID, c.AccountID, c.Name, formatTime(c.CreatedAt))
	return translateError(err)
}

// GetCollection returns one of the account's collections or ErrNotFound.
func (s *Store) GetCollection(ctx context.Context, accountID, id string) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	return s.getCollection(ctx, accountID, id)
}

func (s *Store) getCollection(ctx context.Context, accountID, id string) (*models.Collection, error) {
	c := &models.Collection{AccountID: accountID}
	var createdAt string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT c.id, c.name, c.created_at,
			(SELECT COUNT(*) FROM collection_items ci WHERE ci.collection_id = c.id)
		FROM collections c WHERE c.id = ? AND c.account_id = ?
	`), id, accountID).Scan(&c.ID, &c.Name, &createdAt, &c.ItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollectionItems returns the items of one of the account's collections,
// newest first. A foreign or missing collection yields ErrNotFound.
func (s *Store) ListCollectionItems(ctx context.Context, accountID, collectionID string) ([]*models.CollectionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	if _, err := s.getCollection(ctx, accountID, collectionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, collection_id, run_id, type, source, input_text, output_text,
			output_json, params, created_at
		FROM collection_items
		WHERE collection_id = ?
		ORDER BY created_at DESC, id DESC
	`), collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.CollectionItem{}
	for rows.Next() {
		var (
			item       models.CollectionItem
			runID      sql.NullString
			itemType   string
			outputText sql.NullString
			outputJSON sql.NullString
			params     string
			createdAt  string
		)
		if err := rows.Scan(&item.ID, &item.CollectionID, &runID, &itemType, &item.Source,
			&item.InputText, &outputText, &outputJSON, &params, &createdAt); err != nil {
			return nil, err
		}
		item.RunID = stringPtr(runID)
		item.Type = models.RunType(itemType)
		item.OutputText = stringPtr(outputText)
		item.OutputJSON = rawJSON(outputJSON)
		item.Params = []byte(params)
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// AddCollectionItem saves item into one of the account's collections.
// item.CollectionID must be set; ID and CreatedAt are filled in when empty.
func (s *Store) AddCollectionItem(ctx context.Context, accountID string, item *models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if item == nil || item.CollectionID == "" || !item.Type.Valid() || item.InputText == "" {
		return ErrInvalidInput
	}
	if _, err := s.getCollection(ctx, accountID, item.CollectionID); err != nil {
		return err
	}

	item.ID = generateID("item")
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if len(item.Params) == 0 {
		item.Params = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO collection_items (id, collection_id, run_id, type, source,
			input_text, output_text, output_json, params, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), item.ID, item.CollectionID, ptrValue(item.RunID), string(item.Type), item.Source,
		item.InputText, ptrValue(item.OutputText), jsonText(item.OutputJSON),
		string(item.Params), formatTime(item.CreatedAt))
	return translateError(err)
}

// DeleteCollectionItem removes an item from one of the account's collections.
// Removing an item that is already gone is not an error.
func (s *Store) DeleteCollectionItem(ctx context.Context, accountID, collectionID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM collection_items
		WHERE id = ? AND collection_id = ?
			AND collection_id IN (SELECT id FROM collections WHERE account_id = ?)
	`), itemID, collectionID, accountID)
	return err
}
