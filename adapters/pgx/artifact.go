package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/taskhive/vouch"
)

// SaveArtifact upserts on the (user_id, purpose) primary key, so a re-issue
// atomically supersedes the previous secret for the pair.
func (a *Adapter) SaveArtifact(artifact *vouch.Artifact) error {
	ctx := context.Background()
	q := `INSERT INTO auth_artifacts (user_id, purpose, secret_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, purpose) DO UPDATE
		SET secret_hash = EXCLUDED.secret_hash,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at`

	_, err := a.pool.Exec(ctx, q,
		artifact.UserID, artifact.Purpose, artifact.SecretHash, artifact.CreatedAt, artifact.ExpiresAt)
	return err
}

func (a *Adapter) GetArtifact(userID string, purpose vouch.ArtifactPurpose) (*vouch.Artifact, error) {
	ctx := context.Background()
	q := `SELECT user_id, purpose, secret_hash, created_at, expires_at
		FROM auth_artifacts WHERE user_id = $1 AND purpose = $2`

	return scanArtifact(a.pool.QueryRow(ctx, q, userID, purpose))
}

func (a *Adapter) GetArtifactBySecretHash(purpose vouch.ArtifactPurpose, secretHash string) (*vouch.Artifact, error) {
	ctx := context.Background()
	q := `SELECT user_id, purpose, secret_hash, created_at, expires_at
		FROM auth_artifacts WHERE purpose = $1 AND secret_hash = $2`

	return scanArtifact(a.pool.QueryRow(ctx, q, purpose, secretHash))
}

func (a *Adapter) DeleteArtifact(userID string, purpose vouch.ArtifactPurpose) error {
	ctx := context.Background()
	_, err := a.pool.Exec(ctx,
		`DELETE FROM auth_artifacts WHERE user_id = $1 AND purpose = $2`, userID, purpose)
	return err
}

// DeleteArtifactBySecretHash is the consumption primitive: the row delete is
// atomic, so of two concurrent correct guesses exactly one sees true.
func (a *Adapter) DeleteArtifactBySecretHash(secretHash string) (bool, error) {
	ctx := context.Background()
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM auth_artifacts WHERE secret_hash = $1`, secretHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (a *Adapter) DeleteExpiredArtifacts() (int, error) {
	ctx := context.Background()
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM auth_artifacts WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanArtifact(row pgx.Row) (*vouch.Artifact, error) {
	artifact := &vouch.Artifact{}
	err := row.Scan(
		&artifact.UserID, &artifact.Purpose, &artifact.SecretHash,
		&artifact.CreatedAt, &artifact.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vouch.ErrArtifactNotFound
		}
		return nil, err
	}
	return artifact, nil
}
