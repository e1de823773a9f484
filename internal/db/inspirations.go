package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

// InspirationFilter narrows ListInspirations results. Zero values mean no
// filtering on that axis.
type InspirationFilter struct {
	Category string
	Tag      string
	Search   string // substring match on title, content, or summary
	Limit    int
	Offset   int
}

// InsertInspiration stores a new inspiration.
func InsertInspiration(ctx context.Context, db *sql.DB, insp *inspiration.Inspiration) error {
	categoriesJSON, err := json.Marshal(insp.Categories)
	if err != nil {
		return errors.NewInternal(err)
	}

	var tagsJSON sql.NullString
	if len(insp.Tags) > 0 {
		data, err := json.Marshal(insp.Tags)
		if err != nil {
			return errors.NewInternal(err)
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO inspirations (
			id, title, content, summary, categories_json, tags_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx, query,
		insp.ID, insp.Title, insp.Content, toNullString(insp.Summary),
		string(categoriesJSON), tagsJSON, insp.CreatedAt, insp.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetInspiration retrieves an inspiration by ID.
func GetInspiration(ctx context.Context, db *sql.DB, id string) (*inspiration.Inspiration, error) {
	query := `
		SELECT id, title, content, summary, categories_json, tags_json,
			created_at, updated_at
		FROM inspirations
		WHERE id = ?
	`

	row := db.QueryRowContext(ctx, query, id)
	insp, err := scanInspiration(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return insp, nil
}

// ListInspirations returns inspirations newest-first, optionally filtered.
// Category and tag filters match against the stored JSON arrays.
func ListInspirations(ctx context.Context, db *sql.DB, filter InspirationFilter) ([]*inspiration.Inspiration, error) {
	query := `
		SELECT id, title, content, summary, categories_json, tags_json,
			created_at, updated_at
		FROM inspirations
	`
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, `categories_json LIKE '%"' || ? || '"%'`)
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		conds = append(conds, `tags_json LIKE '%"' || ? || '"%'`)
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		conds = append(conds, `(title LIKE '%' || ? || '%' OR content LIKE '%' || ? || '%' OR summary LIKE '%' || ? || '%')`)
		args = append(args, filter.Search, filter.Search, filter.Search)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var result []*inspiration.Inspiration
	for rows.Next() {
		insp, err := scanInspiration(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		result = append(result, insp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return result, nil
}

// UpdateInspiration updates mutable fields of an existing inspiration and
// bumps updated_at.
func UpdateInspiration(ctx context.Context, db *sql.DB, insp *inspiration.Inspiration) error {
	categoriesJSON, err := json.Marshal(insp.Categories)
	if err != nil {
		return errors.NewInternal(err)
	}

	var tagsJSON sql.NullString
	if len(insp.Tags) > 0 {
		data, err := json.Marshal(insp.Tags)
		if err != nil {
			return errors.NewInternal(err)
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().Unix()

	query := `
		UPDATE inspirations
		SET title = ?, content = ?, summary = ?, categories_json = ?,
			tags_json = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		insp.Title, insp.Content, toNullString(insp.Summary),
		string(categoriesJSON), tagsJSON, now, insp.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(insp.ID)
	}

	insp.UpdatedAt = now

	return nil
}

// DeleteInspirations hard-deletes the given IDs and returns how many rows
// were removed.
func DeleteInspirations(ctx context.Context, db *sql.DB, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := db.ExecContext(ctx, "DELETE FROM inspirations WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	return int(rowsAffected), nil
}

// PurgeInspirations removes every inspiration. Used by the CLI purge
// command.
func PurgeInspirations(ctx context.Context, db *sql.DB) (int, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM inspirations")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(rowsAffected), nil
}

// AllTagLists returns the tag list of every inspiration, for aggregation.
func AllTagLists(ctx context.Context, db *sql.DB) ([][]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT tags_json FROM inspirations")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var tagsJSON sql.NullString
		if err := rows.Scan(&tagsJSON); err != nil {
			return nil, errors.NewInternal(err)
		}
		if !tagsJSON.Valid || tagsJSON.String == "" {
			continue
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err != nil {
			return nil, errors.NewInternal(err)
		}
		result = append(result, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return result, nil
}

// AllCategoryLists returns the category list of every inspiration, for
// aggregation.
func AllCategoryLists(ctx context.Context, db *sql.DB) ([][]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT categories_json FROM inspirations")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var categoriesJSON string
		if err := rows.Scan(&categoriesJSON); err != nil {
			return nil, errors.NewInternal(err)
		}
		var cats []string
		if err := json.Unmarshal([]byte(categoriesJSON), &cats); err != nil {
			return nil, errors.NewInternal(err)
		}
		result = append(result, cats)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return result, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

// scanInspiration scans a single row into an Inspiration struct.
func scanInspiration(row scanner) (*inspiration.Inspiration, error) {
	var (
		insp           inspiration.Inspiration
		summary        sql.NullString
		categoriesJSON string
		tagsJSON       sql.NullString
	)

	err := row.Scan(
		&insp.ID, &insp.Title, &insp.Content, &summary,
		&categoriesJSON, &tagsJSON, &insp.CreatedAt, &insp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	insp.Summary = fromNullString(summary)

	if err := json.Unmarshal([]byte(categoriesJSON), &insp.Categories); err != nil {
		return nil, err
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &insp.Tags); err != nil {
			return nil, err
		}
	}

	return &insp, nil
}

// toNullString converts an empty string to SQL NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// fromNullString converts a sql.NullString to a plain string.
func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
