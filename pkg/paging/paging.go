// Package paging holds the pagination primitives shared by the server and the
// client: page-count math, pre-split page sets and opaque keyset cursors.
package paging

// PageCount returns ceil(n/size). It is 0 when n is 0.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Clamp keeps a 1-based page number inside [1, max(1, count)].
func Clamp(page, count int) int {
	if count < 1 {
		count = 1
	}
	if page < 1 {
		return 1
	}
	if page > count {
		return count
	}
	return page
}

// Split cuts items into consecutive pages of at most size elements.
func Split[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	pages := make([][]T, 0, PageCount(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		pages = append(pages, items[start:end])
	}
	return pages
}

// PageSet is a fully materialized result split into pages.
type PageSet[T any] struct {
	TaskCount int `json:"taskCount"`
	PageCount int `json:"pageCount"`
	TaskPages []T `json:"taskPages"`
}

func NewPageSet[T any](total int, pages []T) PageSet[T] {
	if pages == nil {
		pages = []T{}
	}
	return PageSet[T]{TaskCount: total, PageCount: len(pages), TaskPages: pages}
}

// Empty reports whether the set holds no items.
func (p PageSet[T]) Empty() bool { return p.TaskCount == 0 }

// Page returns the 1-based page n.
func (p PageSet[T]) Page(n int) (T, bool) {
	var zero T
	if n < 1 || n > len(p.TaskPages) {
		return zero, false
	}
	return p.TaskPages[n-1], true
}

// Book is a PageSet with a current page.
type Book[T any] struct {
	set     PageSet[T]
	current int
}

// Reset replaces the page set and clamps the current page into its range.
func (b *Book[T]) Reset(set PageSet[T]) {
	b.set = set
	b.current = Clamp(b.current, len(set.TaskPages))
}

func (b *Book[T]) Set() PageSet[T] { return b.set }

// Current returns the 1-based current page number.
func (b *Book[T]) Current() int { return Clamp(b.current, len(b.set.TaskPages)) }

// CurrentPage returns the content of the current page.
func (b *Book[T]) CurrentPage() (T, bool) { return b.set.Page(b.Current()) }

func (b *Book[T]) HasNext() bool { return b.Current() < len(b.set.TaskPages) }

func (b *Book[T]) HasPrev() bool { return b.Current() > 1 }

// Next advances one page. It is a no-op on the last page.
func (b *Book[T]) Next() bool {
	if !b.HasNext() {
		return false
	}
	b.current = b.Current() + 1
	return true
}

// Prev goes back one page. It is a no-op on the first page.
func (b *Book[T]) Prev() bool {
	if !b.HasPrev() {
		return false
	}
	b.current = b.Current() - 1
	return true
}
