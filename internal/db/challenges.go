package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Fantasim/hdada/internal/models"
)

// SaveChallenge inserts a new challenge.
func (d *DB) SaveChallenge(c models.Challenge) error {
	_, err := d.conn.Exec(
		`INSERT INTO challenges (id, address, nonce, message, status, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Address, c.Nonce, c.Message, string(c.Status), c.ExpiresAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert challenge %s: %w", c.ID, err)
	}

	slog.Debug("challenge saved", "id", c.ID, "address", c.Address, "expiresAt", c.ExpiresAt)
	return nil
}

// GetChallenge returns the challenge with the given id.
func (d *DB) GetChallenge(id string) (*models.Challenge, error) {
	var c models.Challenge
	var verifiedAt sql.NullString

	err := d.conn.QueryRow(
		`SELECT id, address, nonce, message, status, expires_at, created_at, verified_at
		 FROM challenges WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Address, &c.Nonce, &c.Message, &c.Status, &c.ExpiresAt, &c.CreatedAt, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query challenge %s: %w", id, err)
	}

	if verifiedAt.Valid {
		c.VerifiedAt = verifiedAt.String
	}
	return &c, nil
}

// ResolveChallenge moves a pending challenge to status. It returns false when
// the challenge was already resolved, so a challenge is answered at most once.
func (d *DB) ResolveChallenge(id string, status models.ChallengeStatus, at string) (bool, error) {
	var verifiedAt any
	if status == models.ChallengeVerified {
		verifiedAt = at
	}

	result, err := d.conn.Exec(
		`UPDATE challenges SET status = ?, verified_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), verifiedAt, id, string(models.ChallengePending),
	)
	if err != nil {
		return false, fmt.Errorf("resolve challenge %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve challenge %s: %w", id, err)
	}

	slog.Info("challenge resolved", "id", id, "status", status, "updated", n == 1)
	return n == 1, nil
}

// PurgeExpiredChallenges deletes pending challenges that expired before
// cutoff (RFC 3339) and returns how many were removed.
func (d *DB) PurgeExpiredChallenges(cutoff string) (int64, error) {
	result, err := d.conn.Exec(
		"DELETE FROM challenges WHERE status = ? AND expires_at < ?",
		string(models.ChallengePending), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired challenges: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired challenges: %w", err)
	}
	if n > 0 {
		slog.Info("expired challenges purged", "count", n)
	}
	return n, nil
}
