package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-sod/tiebreak/internal/database"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var ErrRunNotFound = errors.New("run not found")

var (
	runsBucket      = []byte("runs")
	snapshotsBucket = []byte("snapshots")
)

type FilterFn func(r Run) bool

func NewStore(db *database.DB) *Store {
	return &Store{sDB: db}
}

// Store persists runs in two buckets keyed by run id: the run as JSON and its
// dataset snapshot as XDR.
type Store struct {
	sDB *database.DB
}

// Save writes the run and its snapshot in one transaction.
func (s *Store) Save(_ context.Context, r Run, snap Snapshot) error {
	runBytes, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("unable to marshal run %s: %w", r.ID, err)
	}
	snapBytes, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.sDB.DB.Update(func(tx *bolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		snapshots, err := tx.CreateBucketIfNotExists(snapshotsBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		key := []byte(r.ID.String())
		if err := runs.Put(key, runBytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		if err := snapshots.Put(key, snapBytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (Run, error) {
	var r Run
	if err := s.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b == nil {
			return ErrRunNotFound
		}
		v := b.Get([]byte(id.String()))
		if v == nil {
			return ErrRunNotFound
		}
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		return nil
	}); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) Snapshot(_ context.Context, id uuid.UUID) (Snapshot, error) {
	var raw []byte
	if err := s.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		if b == nil {
			return ErrRunNotFound
		}
		v := b.Get([]byte(id.String()))
		if v == nil {
			return ErrRunNotFound
		}
		raw = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return decodeSnapshot(raw)
}

// List returns the stored runs accepted by filter, newest first. A nil
// filter accepts every run.
func (s *Store) List(_ context.Context, filter FilterFn) ([]Run, error) {
	var list []Run
	if err := s.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if filter == nil || filter(r) {
				list = append(list, r)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteMany(ctx, []uuid.UUID{id})
}

// Prune keeps the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}
	runs, err := s.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(runs) <= keep {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(runs)-keep)
	for _, r := range runs[keep:] {
		ids = append(ids, r.ID)
	}
	if err := s.deleteMany(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Store) deleteMany(_ context.Context, ids []uuid.UUID) error {
	if err := s.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{runsBucket, snapshotsBucket} {
			b := tx.Bucket(name)
			if b == nil {
				continue
			}
			for _, id := range ids {
				if err := b.Delete([]byte(id.String())); err != nil {
					return fmt.Errorf("unable delete: %w", err)
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}
