// Package cart holds the shopper's cart: variant lines bounded by the stock
// ceiling known when each line was added. Every mutation is persisted through
// an injected Storage before it becomes visible.
package cart

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BosskingGM/office-gama/internal/core/domain"
)

// Storage persists cart lines between sessions.
type Storage interface {
	Load() ([]domain.CartLine, error)
	Save(lines []domain.CartLine) error
}

// Store is the cart accumulator.
type Store struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	storage Storage
}

// New rehydrates the cart from storage once.
func New(storage Storage) (*Store, error) {
	lines, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Store{lines: lines, storage: storage}, nil
}

// Add merges line into the cart. The whole add is rejected when the merged
// quantity would exceed the stock ceiling.
func (s *Store) Add(line domain.CartLine) error {
	line.VariantID = strings.TrimSpace(line.VariantID)
	if line.VariantID == "" {
		return domain.NewServiceError(domain.ErrValidation, "variant id is required", "INVALID_LINE")
	}
	if line.Quantity < 1 {
		return domain.NewServiceError(domain.ErrValidation, "quantity must be at least 1", "INVALID_LINE")
	}

	return s.mutate(func(lines []domain.CartLine) ([]domain.CartLine, error) {
		if i := indexOf(lines, line.VariantID); i >= 0 {
			merged := lines[i].Quantity + line.Quantity
			if merged > lines[i].StockCeiling {
				return nil, ceilingError(lines[i].VariantID, lines[i].StockCeiling)
			}
			lines[i].Quantity = merged
			return lines, nil
		}
		if line.Quantity > line.StockCeiling {
			return nil, ceilingError(line.VariantID, line.StockCeiling)
		}
		return append(lines, line), nil
	})
}

// Increase adds one unit. At the ceiling the cart is left unchanged and
// domain.ErrStockCeiling is returned.
func (s *Store) Increase(variantID string) error {
	return s.mutate(func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, variantID)
		if i < 0 {
			return nil, lineNotFound(variantID)
		}
		if lines[i].Quantity >= lines[i].StockCeiling {
			return nil, ceilingError(variantID, lines[i].StockCeiling)
		}
		lines[i].Quantity++
		return lines, nil
	})
}

// Decrease removes one unit, dropping the line when it reaches zero.
func (s *Store) Decrease(variantID string) error {
	return s.mutate(func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, variantID)
		if i < 0 {
			return nil, lineNotFound(variantID)
		}
		if lines[i].Quantity <= 1 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		lines[i].Quantity--
		return lines, nil
	})
}

// Remove drops the line whatever its quantity.
func (s *Store) Remove(variantID string) error {
	return s.mutate(func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, variantID)
		if i < 0 {
			return nil, lineNotFound(variantID)
		}
		return append(lines[:i], lines[i+1:]...), nil
	})
}

// Clear empties the cart.
func (s *Store) Clear() error {
	return s.mutate(func([]domain.CartLine) ([]domain.CartLine, error) {
		return nil, nil
	})
}

// Snapshot returns a copy of the current lines.
func (s *Store) Snapshot() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.lines...)
}

// Subtotal sums all lines.
func (s *Store) Subtotal() int64 {
	return domain.CheckoutIntent{Lines: s.Snapshot()}.Subtotal()
}

// mutate applies fn to a copy of the lines and commits the result only after
// it has been saved.
func (s *Store) mutate(fn func([]domain.CartLine) ([]domain.CartLine, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(append([]domain.CartLine(nil), s.lines...))
	if err != nil {
		return err
	}
	if err := s.storage.Save(next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.lines = next
	return nil
}

func indexOf(lines []domain.CartLine, variantID string) int {
	for i, l := range lines {
		if l.VariantID == variantID {
			return i
		}
	}
	return -1
}

func ceilingError(variantID string, ceiling int) error {
	return domain.NewServiceError(domain.ErrStockCeiling,
		fmt.Sprintf("variant %s has only %d in stock", variantID, ceiling), "STOCK_CEILING")
}

func lineNotFound(variantID string) error {
	return domain.NewServiceError(domain.ErrLineNotFound, "variant "+variantID, "LINE_NOT_FOUND")
}
