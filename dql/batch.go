package dql

import (
	"context"
)

type BatchOpKind int

const (
	batchPut BatchOpKind = iota
	batchDelete
)

type BatchOp struct {
	Kind BatchOpKind
	Doc  []byte // for put
	ID   string // for delete
}

// Batch collects puts and deletes applied in one transaction.
type Batch struct {
	ops []BatchOp
}

func NewBatch() Batch {
	return Batch{ops: make([]BatchOp, 0)}
}

func (b *Batch) Put(doc []byte) {
	b.ops = append(b.ops, BatchOp{Kind: batchPut, Doc: doc})
}

func (b *Batch) Delete(id string) error {
	if id == "" {
		return InvalidDocument("id cannot be empty")
	}
	b.ops = append(b.ops, BatchOp{Kind: batchDelete, ID: id})
	return nil
}

func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Empty() bool {
	return len(b.ops) == 0
}

// Execute is implemented on Store to keep storage access internal
func (b *Batch) Execute(ctx context.Context, s *Store) ([]string, error) {
	return s.Batch(ctx, *b)
}

// Batch applies every operation or none. It returns the ids written by the
// put operations in order. Deleting a missing id is not an error here.
func (s *Store) Batch(ctx context.Context, b Batch) ([]string, error) {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	type prepared struct {
		id   string
		data []byte
	}
	preps := make([]prepared, len(b.ops))
	for i, op := range b.ops {
		if op.Kind != batchPut {
			continue
		}
		id, data, err := prepareDocument(p, op.Doc)
		if err != nil {
			return nil, err
		}
		preps[i] = prepared{id: id, data: data}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Wrap(ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	now := s.nowMS()
	var ids []string
	for i, op := range b.ops {
		switch op.Kind {
		case batchPut:
			if _, err := tx.ExecContext(ctx, s.sqlt.Upsert, preps[i].id, string(preps[i].data), now); err != nil {
				return nil, Wrap(ErrSQL, "upsert document", err)
			}
			ids = append(ids, preps[i].id)
		case batchDelete:
			if _, err := tx.ExecContext(ctx, s.sqlt.Delete, op.ID); err != nil {
				return nil, Wrap(ErrSQL, "delete document", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, Wrap(ErrSQL, "commit", err)
	}
	s.log.Debug().Int("ops", len(b.ops)).Int("puts", len(ids)).Msg("batch")
	return ids, nil
}
