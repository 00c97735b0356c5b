package handler

import (
	"net/http/httptest"
	"testing"
)

func TestPaginateClamping(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		totalItems int64
		wantPage   int
		wantPages  int
	}{
		{"first page default", "", 13, 1, 3},
		{"explicit page", "page=2", 13, 2, 3},
		{"last page", "page=3", 13, 3, 3},
		{"beyond last clamps", "page=99", 13, 3, 3},
		{"zero clamps to first", "page=0", 13, 1, 3},
		{"negative clamps to first", "page=-5", 13, 1, 3},
		{"garbage clamps to first", "page=banana", 13, 1, 3},
		{"empty set has one page", "page=7", 0, 1, 1},
		{"exact multiple", "page=2", 12, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			pg := paginate(r, 6, tt.totalItems)
			if pg.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", pg.Page, tt.wantPage)
			}
			if pg.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", pg.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestPaginationOffsets(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3", nil)
	pg := paginate(r, 6, 20)

	if pg.Offset() != 12 {
		t.Errorf("Offset = %d, want 12", pg.Offset())
	}
	if !pg.HasPrev() || pg.PrevPage() != 2 {
		t.Error("page 3 should have page 2 before it")
	}
	if !pg.HasNext() || pg.NextPage() != 4 {
		t.Error("page 3 of 4 should have page 4 after it")
	}
}
