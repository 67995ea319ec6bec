package repositories

import (
	"context"
	"sort"
	"sync"

	"veterinary-backend/models"
)

// MemoryCustomerRepo keeps customers in process memory. Ids start at 1 and
// are never reused.
type MemoryCustomerRepo struct {
	mu        sync.RWMutex
	customers map[int64]models.Customer
	nextID    int64
}

func NewMemoryCustomerRepo() *MemoryCustomerRepo {
	return &MemoryCustomerRepo{
		customers: make(map[int64]models.Customer),
		nextID:    1,
	}
}

func (r *MemoryCustomerRepo) FindAll(ctx context.Context) ([]models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *MemoryCustomerRepo) FindByID(ctx context.Context, id int64) (models.Customer, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Customer{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	return c, ok, nil
}

func (r *MemoryCustomerRepo) Save(ctx context.Context, c *models.Customer) (models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return models.Customer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Id == 0 {
		c.Id = r.nextID
		r.nextID++
	} else if c.Id >= r.nextID {
		r.nextID = c.Id + 1
	}
	r.customers[c.Id] = *c
	return *c, nil
}

func (r *MemoryCustomerRepo) DeleteByID(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.customers, id)
	return nil
}
