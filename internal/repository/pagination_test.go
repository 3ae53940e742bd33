package repository

import "testing"

func TestNewPaginator_FirstPage(t *testing.T) {
	p := NewPaginator(45, 10, 1)

	if p.TotalPages != 5 {
		t.Errorf("expected 5 total pages, got %d", p.TotalPages)
	}
	if p.ItemsCount != 45 {
		t.Errorf("expected items_count 45, got %d", p.ItemsCount)
	}
	if p.HasPreviousPage {
		t.Error("first page should not have a previous page")
	}
	if !p.HasNextPage {
		t.Error("first page of five should have a next page")
	}
	if p.PreviousPage != nil {
		t.Errorf("expected nil previous_page, got %d", *p.PreviousPage)
	}
	if p.NextPage == nil || *p.NextPage != 2 {
		t.Errorf("expected next_page 2, got %v", p.NextPage)
	}
	if p.SerialNumber != 1 {
		t.Errorf("expected serial_number 1, got %d", p.SerialNumber)
	}
}

func TestNewPaginator_LastPage(t *testing.T) {
	p := NewPaginator(45, 10, 5)

	if p.HasNextPage {
		t.Error("last page should not have a next page")
	}
	if p.NextPage != nil {
		t.Errorf("expected nil next_page, got %d", *p.NextPage)
	}
	if !p.HasPreviousPage {
		t.Error("last page should have a previous page")
	}
	if p.PreviousPage == nil || *p.PreviousPage != 4 {
		t.Errorf("expected previous_page 4, got %v", p.PreviousPage)
	}
	if p.SerialNumber != 41 {
		t.Errorf("expected serial_number 41, got %d", p.SerialNumber)
	}
}

func TestNewPaginator_ExactMultiple(t *testing.T) {
	p := NewPaginator(40, 10, 4)

	if p.TotalPages != 4 {
		t.Errorf("expected 4 total pages for 40/10, got %d", p.TotalPages)
	}
	if p.HasNextPage {
		t.Error("page 4 of 4 should not have a next page")
	}
}

func TestNewPaginator_Empty(t *testing.T) {
	p := NewPaginator(0, 10, 1)

	if p.TotalPages != 0 {
		t.Errorf("expected 0 total pages, got %d", p.TotalPages)
	}
	if p.HasNextPage || p.HasPreviousPage {
		t.Error("empty result should have no next or previous page")
	}
}

// Ceiling division and the has_next/has_previous flags must agree for any
// combination of totals and page positions.
func TestNewPaginator_Consistency(t *testing.T) {
	for total := 0; total <= 55; total += 7 {
		for page := 1; page <= 8; page++ {
			p := NewPaginator(int64(total), 10, page)

			wantPages := (total + 9) / 10
			if p.TotalPages != wantPages {
				t.Errorf("total=%d page=%d: expected %d total pages, got %d", total, page, wantPages, p.TotalPages)
			}
			if got, want := p.HasNextPage, page < wantPages; got != want {
				t.Errorf("total=%d page=%d: has_next_page=%v, want %v", total, page, got, want)
			}
			if got, want := p.HasPreviousPage, page > 1; got != want {
				t.Errorf("total=%d page=%d: has_previous_page=%v, want %v", total, page, got, want)
			}
		}
	}
}
