// Package history persists completed analyses and serves them back to
// clients, newest first.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/pkg/models"
)

// Store is a sqlite-backed analysis history.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS analysis_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        ingredients_score REAL NOT NULL,
        nutrition_score REAL NOT NULL,
        total_score REAL NOT NULL,
        nutrition_data TEXT NOT NULL,
        ingredients_data TEXT NOT NULL,
        analysis_summary TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_history_user ON analysis_history(user_id);
    CREATE INDEX IF NOT EXISTS idx_history_created ON analysis_history(created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Create inserts a record and returns its generated id. The caller keeps the
// id so the summary can be attached afterwards.
func (s *Store) Create(record *models.HistoryRecord) (int64, error) {
	nutritionJSON, err := json.Marshal(record.Nutrition)
	if err != nil {
		return 0, errors.NewPersistenceError("failed to encode nutrition data", err)
	}
	ingredients := record.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return 0, errors.NewPersistenceError("failed to encode ingredients data", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
        INSERT INTO analysis_history (user_id, ingredients_score, nutrition_score, total_score, nutrition_data, ingredients_data, analysis_summary, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	result, err := s.db.Exec(query,
		record.UserID, record.Scores.IngredientsScore, record.Scores.NutritionScore,
		record.TotalScore, string(nutritionJSON), string(ingredientsJSON),
		record.AnalysisSummary, createdAt.Format(time.RFC3339))
	if err != nil {
		return 0, errors.NewPersistenceError("failed to insert history record", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewPersistenceError("failed to read inserted record id", err)
	}
	record.ID = id
	record.CreatedAt = createdAt
	return id, nil
}

// UpdateSummary attaches the generated summary to an existing record.
func (s *Store) UpdateSummary(id int64, summary string) error {
	result, err := s.db.Exec(`UPDATE analysis_history SET analysis_summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return errors.NewPersistenceError("failed to update analysis summary", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.NewPersistenceError(fmt.Sprintf("history record %d not found", id), nil)
	}
	return nil
}

// Query returns a user's records, newest first. startDate and endDate are
// optional YYYY-MM-DD bounds; limit caps the result size.
func (s *Store) Query(userID, startDate, endDate string, limit int) ([]*models.HistoryRecord, error) {
	query := `
        SELECT id, user_id, ingredients_score, nutrition_score, total_score, nutrition_data, ingredients_data, analysis_summary, created_at
        FROM analysis_history
        WHERE user_id = ?
    `
	args := []interface{}{userID}

	if startDate != "" {
		query += " AND DATE(created_at) >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND DATE(created_at) <= ?"
		args = append(args, endDate)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to query history", err)
	}
	defer rows.Close()

	var records []*models.HistoryRecord
	for rows.Next() {
		record := &models.HistoryRecord{}
		var nutritionJSON, ingredientsJSON, createdAtStr string

		err := rows.Scan(
			&record.ID, &record.UserID, &record.Scores.IngredientsScore,
			&record.Scores.NutritionScore, &record.TotalScore,
			&nutritionJSON, &ingredientsJSON, &record.AnalysisSummary, &createdAtStr)
		if err != nil {
			return nil, errors.NewPersistenceError("failed to scan history record", err)
		}

		if err := json.Unmarshal([]byte(nutritionJSON), &record.Nutrition); err != nil {
			return nil, errors.NewPersistenceError("failed to decode nutrition data", err)
		}
		if err := json.Unmarshal([]byte(ingredientsJSON), &record.Ingredients); err != nil {
			return nil, errors.NewPersistenceError("failed to decode ingredients data", err)
		}
		if record.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, errors.NewPersistenceError("failed to parse created_at", err)
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("failed to iterate history rows", err)
	}

	return records, nil
}
