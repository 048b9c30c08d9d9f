package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Catalog used by tests and the standalone dev mode.
type Memory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
}

func NewMemory(products ...*Product) *Memory {
	m := &Memory{products: make(map[uuid.UUID]*Product)}
	for _, p := range products {
		m.Put(p)
	}
	return m
}

// Put adds or replaces a product, generating IDs where unset.
func (m *Memory) Put(p *Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Variants {
		if p.Variants[i].ID == uuid.Nil {
			p.Variants[i].ID = uuid.New()
		}
		p.Variants[i].ProductID = p.ID
	}
	m.products[p.ID] = p
}

// Remove deletes a product, simulating a delisting.
func (m *Memory) Remove(productID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
}

func (m *Memory) FindProduct(_ context.Context, productID uuid.UUID) (*Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok || !p.Active {
		return nil, false, nil
	}
	return p, true, nil
}

func (m *Memory) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*Product, *Variant, bool, error) {
	p, ok, err := m.FindProduct(ctx, productID)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return p, &p.Variants[i], true, nil
		}
	}
	return nil, nil, false, nil
}
