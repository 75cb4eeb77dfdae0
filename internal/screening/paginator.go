package screening

import (
	"fmt"
	"math"
	"time"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// PageRequest selects one page of a ranked result. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// Validate rejects negative pages, non-positive sizes and pages whose offset
// overflows
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("%w: page must be >= 0, got %d", contracts.ErrInvalidPage, p.Page)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be > 0, got %d", contracts.ErrInvalidPage, p.Size)
	}
	// Offset must fit in an int
	if p.Page > math.MaxInt/p.Size {
		return fmt.Errorf("%w: page %d with size %d is out of range", contracts.ErrInvalidPage, p.Page, p.Size)
	}
	return nil
}

// Offset returns the zero-based offset of the first row of the page
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a ranked result plus the size of the whole result
type Page struct {
	Date  time.Time
	Items []*contracts.FactorSnapshot
	Total int64
	Page  int
	Size  int
}

// TotalPages returns ceil(Total / Size)
func (p *Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// Paginate slices an already ranked sequence. Concatenating pages
// 0..TotalPages-1 reproduces seq exactly once.
func Paginate[T any](seq []T, req PageRequest) ([]T, int64, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	return Window(seq, req.Offset(), req.Size), int64(len(seq)), nil
}

// Window returns seq[offset:offset+limit], clamped to seq. limit <= 0 means
// unlimited.
func Window[T any](seq []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(seq) {
		return []T{}
	}
	end := len(seq)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return seq[offset:end]
}
