package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
)

// ComparisonRepository stores comparison results for later viewing.
type ComparisonRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewComparisonRepository creates a new ComparisonRepository with the given database connection
func NewComparisonRepository(db *sql.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db, now: time.Now}
}

// Save inserts result and its pairs in one transaction and returns the stored record with a generated ID.
func (r *ComparisonRepository) Save(result *models.ComparisonResult) (*models.SavedComparison, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil comparison", shared.ErrInvalidInput)
	}
	if result.IdentityA.Handle == "" || result.IdentityB.Handle == "" {
		return nil, fmt.Errorf("%w: comparison is missing a member handle", shared.ErrInvalidInput)
	}

	saved := &models.SavedComparison{
		ID:               shared.GenerateID(),
		CreatedAt:        r.now().UTC(),
		PairCount:        len(result.Pairs),
		ComparisonResult: *result,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	a, b := result.IdentityA, result.IdentityB
	_, err = tx.Exec(`
		INSERT INTO comparisons (id, handle_a, display_name_a, avatar_a, handle_b, display_name_b, avatar_b, pair_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, saved.ID, a.Handle, a.DisplayName, a.AvatarRef, b.Handle, b.DisplayName, b.AvatarRef, saved.PairCount, saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comparison: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO comparison_pairs (comparison_id, position, film_key, title, image_a, rating_a, category_a, image_b, rating_b, category_b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare pair insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range result.Pairs {
		_, err := stmt.Exec(saved.ID, i, p.Key, p.Title(),
			p.OwnerA.ImageRef, nullRating(p.OwnerA.Rating), p.OwnerA.Category.String(),
			p.OwnerB.ImageRef, nullRating(p.OwnerB.Rating), p.OwnerB.Category.String())
		if err != nil {
			return nil, fmt.Errorf("failed to insert pair %s: %w", p.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit comparison: %w", err)
	}
	return saved, nil
}

// Get retrieves a saved comparison with all of its pairs.
func (r *ComparisonRepository) Get(id string) (*models.SavedComparison, error) {
	saved, err := r.scanOne(r.db.QueryRow(`
		SELECT id, handle_a, display_name_a, avatar_a, handle_b, display_name_b, avatar_b, pair_count, created_at
		FROM comparisons
		WHERE id = ?
	`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT film_key, title, image_a, rating_a, category_a, image_b, rating_b, category_b
		FROM comparison_pairs
		WHERE comparison_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	saved.Pairs = make([]models.PairedRecord, 0, saved.PairCount)
	for rows.Next() {
		var (
			key, title, imageA, catA, imageB, catB string
			ratingA, ratingB                       sql.NullFloat64
		)
		if err := rows.Scan(&key, &title, &imageA, &ratingA, &catA, &imageB, &ratingB, &catB); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}

		recA, err := record(key, title, imageA, ratingA, catA)
		if err != nil {
			return nil, err
		}
		recB, err := record(key, title, imageB, ratingB, catB)
		if err != nil {
			return nil, err
		}
		saved.Pairs = append(saved.Pairs, models.PairedRecord{Key: key, OwnerA: recA, OwnerB: recB})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pairs: %w", err)
	}

	return saved, nil
}

// List returns saved comparisons newest first, without their pairs. A limit of 0 or less means no limit.
func (r *ComparisonRepository) List(limit int) ([]*models.SavedComparison, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT id, handle_a, display_name_a, avatar_a, handle_b, display_name_b, avatar_b, pair_count, created_at
		FROM comparisons
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	var out []*models.SavedComparison
	for rows.Next() {
		saved, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comparisons: %w", err)
	}

	return out, nil
}

// ListForHandle returns saved comparisons that include handle on either side, newest first.
func (r *ComparisonRepository) ListForHandle(handle string) ([]*models.SavedComparison, error) {
	rows, err := r.db.Query(`
		SELECT id, handle_a, display_name_a, avatar_a, handle_b, display_name_b, avatar_b, pair_count, created_at
		FROM comparisons
		WHERE handle_a = ? OR handle_b = ?
		ORDER BY created_at DESC, rowid DESC
	`, handle, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	var out []*models.SavedComparison
	for rows.Next() {
		saved, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}

// Delete removes a saved comparison and its pairs.
func (r *ComparisonRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM comparisons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrComparisonNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ComparisonRepository) scanOne(row scanner) (*models.SavedComparison, error) {
	var s models.SavedComparison
	a, b := &s.IdentityA, &s.IdentityB

	err := row.Scan(&s.ID, &a.Handle, &a.DisplayName, &a.AvatarRef, &b.Handle, &b.DisplayName, &b.AvatarRef, &s.PairCount, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrComparisonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan comparison: %w", err)
	}
	return &s, nil
}

func record(key, title, image string, rating sql.NullFloat64, category string) (models.Record, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return models.Record{}, fmt.Errorf("corrupt pair %s: %w", key, err)
	}

	rec := models.Record{Key: key, Title: title, ImageRef: image, Category: c}
	if rating.Valid {
		rec.Rating = models.RatingOf(rating.Float64)
	}
	return rec, nil
}

func nullRating(r *float64) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *r, Valid: true}
}
