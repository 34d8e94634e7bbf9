package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// ErrDigestMismatch is returned by Load when the stored data no longer
// matches the digest written with it.
var ErrDigestMismatch = errors.New("instance save digest mismatch")

// InstanceSave is one row of instance_saves: the script save string of an instance.
type InstanceSave struct {
	InstanceID uint32
	MapID      uint32
	Data       string
}

// Digest returns the BLAKE2b-256 digest stored alongside a save string.
func Digest(data string) []byte {
	sum := blake2b.Sum256([]byte(data))
	return sum[:]
}

// VerifyDigest reports whether digest was computed from data.
func VerifyDigest(data string, digest []byte) bool {
	return bytes.Equal(Digest(data), digest)
}

type InstanceRepo struct {
	db *DB
}

func NewInstanceRepo(db *DB) *InstanceRepo {
	return &InstanceRepo{db: db}
}

const upsertInstanceSave = `INSERT INTO instance_saves (instance_id, map_id, data, digest, updated_at)
	 VALUES ($1, $2, $3, $4, now())
	 ON CONFLICT (instance_id) DO UPDATE
	 SET map_id = EXCLUDED.map_id, data = EXCLUDED.data, digest = EXCLUDED.digest, updated_at = now()`

// Save upserts one instance save.
func (r *InstanceRepo) Save(ctx context.Context, s InstanceSave) error {
	if _, err := r.db.Pool.Exec(ctx, upsertInstanceSave,
		int64(s.InstanceID), int32(s.MapID), s.Data, Digest(s.Data),
	); err != nil {
		return fmt.Errorf("save instance %d: %w", s.InstanceID, err)
	}
	return nil
}

// SaveBatch upserts several saves in one transaction.
func (r *InstanceRepo) SaveBatch(ctx context.Context, saves []InstanceSave) error {
	if len(saves) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("instance save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range saves {
		batch.Queue(upsertInstanceSave, int64(s.InstanceID), int32(s.MapID), s.Data, Digest(s.Data))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("instance save batch: %w", err)
	}
	return tx.Commit(ctx)
}

// Load returns the save for instanceID, or nil if none was written.
func (r *InstanceRepo) Load(ctx context.Context, instanceID uint32) (*InstanceSave, error) {
	var (
		mapID  int32
		data   string
		digest []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT map_id, data, digest FROM instance_saves WHERE instance_id = $1`,
		int64(instanceID),
	).Scan(&mapID, &data, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load instance %d: %w", instanceID, err)
	}
	if !VerifyDigest(data, digest) {
		return nil, fmt.Errorf("load instance %d: %w", instanceID, ErrDigestMismatch)
	}
	return &InstanceSave{InstanceID: instanceID, MapID: uint32(mapID), Data: data}, nil
}

// LoadByMap returns the most recent save of any instance of mapID, or nil.
func (r *InstanceRepo) LoadByMap(ctx context.Context, mapID uint32) (*InstanceSave, error) {
	var (
		instanceID int64
		data       string
		digest     []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT instance_id, data, digest FROM instance_saves
		 WHERE map_id = $1 ORDER BY updated_at DESC LIMIT 1`,
		int32(mapID),
	).Scan(&instanceID, &data, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load map %d save: %w", mapID, err)
	}
	if !VerifyDigest(data, digest) {
		return nil, fmt.Errorf("load map %d save: %w", mapID, ErrDigestMismatch)
	}
	return &InstanceSave{InstanceID: uint32(instanceID), MapID: mapID, Data: data}, nil
}

// Delete removes the save of an instance that was reset.
func (r *InstanceRepo) Delete(ctx context.Context, instanceID uint32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM instance_saves WHERE instance_id = $1`, int64(instanceID))
	if err != nil {
		return fmt.Errorf("delete instance %d: %w", instanceID, err)
	}
	return nil
}
