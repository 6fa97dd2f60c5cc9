package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskhive/vouch/core"
	"github.com/taskhive/vouch/pkg/crypto"
)

// Ledger tracks at most one pending one-time secret per (user, purpose) pair.
// Issuing supersedes any prior secret for the pair; consuming deletes the
// secret exactly once. Expiry is evaluated lazily at consumption time, never
// by background sweep.
type Ledger struct {
	storage core.ArtifactStorage
	codes   *crypto.CodeGenerator
}

func NewLedger(storage core.ArtifactStorage) *Ledger {
	return &Ledger{
		storage: storage,
		codes:   crypto.NewVerificationCodes(),
	}
}

// Issue generates a fresh one-time secret for the pair, stores only its
// digest with the given expiry window, and returns the raw value for
// one-time delivery. The raw value is never retrievable again. Any prior
// artifact for the pair is replaced atomically by the storage layer.
func (l *Ledger) Issue(userID string, purpose core.ArtifactPurpose, ttl time.Duration) (string, error) {
	var raw string
	var err error

	// Verification codes are short because a human copies them from an
	// email; reset secrets ride in a link and can be long.
	switch purpose {
	case core.ArtifactEmailVerify:
		raw, err = l.codes.GenerateCode()
	default:
		raw, err = crypto.GenerateSecret()
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	now := time.Now()
	artifact := &core.Artifact{
		UserID:     userID,
		Purpose:    purpose,
		SecretHash: crypto.HashSecret(raw),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := l.storage.SaveArtifact(artifact); err != nil {
		return "", fmt.Errorf("failed to save artifact: %w", err)
	}

	return raw, nil
}

// Consume matches candidate against the pending artifact for the pair.
//
// Match and unexpired: the artifact is deleted (one-time use) and nil is
// returned. Mismatch: ErrCodeInvalid, artifact retained so the caller may
// retry. Expired: ErrCodeExpired, stale artifact deleted opportunistically.
func (l *Ledger) Consume(userID string, purpose core.ArtifactPurpose, candidate string) error {
	if candidate == "" {
		return core.ErrCodeInvalid
	}

	artifact, err := l.storage.GetArtifact(userID, purpose)
	if err != nil {
		if errors.Is(err, core.ErrArtifactNotFound) {
			return core.ErrCodeInvalid
		}
		return fmt.Errorf("failed to get artifact: %w", err)
	}

	return l.consume(artifact, candidate)
}

// ConsumeBySecret consumes a pending artifact located by the raw secret
// itself, across all accounts. This is the unauthenticated path used by
// password reset, where the caller cannot claim an account id. It returns
// the owning user's id on success.
func (l *Ledger) ConsumeBySecret(purpose core.ArtifactPurpose, raw string) (string, error) {
	if raw == "" {
		return "", core.ErrCodeInvalid
	}

	artifact, err := l.storage.GetArtifactBySecretHash(purpose, crypto.HashSecret(raw))
	if err != nil {
		if errors.Is(err, core.ErrArtifactNotFound) {
			return "", core.ErrCodeInvalid
		}
		return "", fmt.Errorf("failed to get artifact: %w", err)
	}

	if err := l.consume(artifact, raw); err != nil {
		return "", err
	}
	return artifact.UserID, nil
}

func (l *Ledger) consume(artifact *core.Artifact, candidate string) error {
	if artifact.Expired(time.Now()) {
		// Stale artifacts are inert either way; deleting here is hygiene.
		_ = l.storage.DeleteArtifact(artifact.UserID, artifact.Purpose)
		return core.ErrCodeExpired
	}

	ok, err := crypto.VerifySecret(candidate, artifact.SecretHash)
	if err != nil || !ok {
		return core.ErrCodeInvalid
	}

	// Delete keyed on the digest so two concurrent correct guesses cannot
	// both succeed: only the caller that wins the delete consumes.
	deleted, err := l.storage.DeleteArtifactBySecretHash(artifact.SecretHash)
	if err != nil {
		return fmt.Errorf("failed to consume artifact: %w", err)
	}
	if !deleted {
		return core.ErrCodeInvalid
	}

	return nil
}
