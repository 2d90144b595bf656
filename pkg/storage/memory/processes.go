package memory

import (
	"context"
	"sort"

	"github.com/ndavault/ndavault/pkg/storage"
)

type processStore struct{ s *Store }

func (p *processStore) Create(ctx context.Context, process *storage.Process) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	p.s.processes[process.ID] = deepCopyProcess(*process)
	return nil
}

func (p *processStore) ListByOwner(ctx context.Context, ownerID string) ([]*storage.Process, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	var result []*storage.Process
	for _, proc := range p.s.processes {
		if proc.OwnerID == ownerID {
			cp := deepCopyProcess(proc)
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (p *processStore) FindByID(ctx context.Context, id string) (*storage.Process, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	proc, ok := p.s.processes[id]
	if !ok {
		return nil, nil
	}
	cp := deepCopyProcess(proc)
	return &cp, nil
}

func deepCopyProcess(p storage.Process) storage.Process {
	key := make([]byte, len(p.ContentKey))
	copy(key, p.ContentKey)
	p.ContentKey = key
	return p
}
