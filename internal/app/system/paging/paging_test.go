package paging

import (
	"errors"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestNumPages(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}
	tests := []struct {
		count int64
		want  int
	}{
		{0, 1},
		{1, 1},
		{3, 1},
		{4, 1}, // trailing single item merges
		{5, 2},
		{6, 2},
		{7, 2}, // 3 + 4
		{8, 3},
		{10, 3},
	}
	for _, tt := range tests {
		if got := p.NumPages(tt.count); got != tt.want {
			t.Errorf("NumPages(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestPage_OrphanMerge(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}

	tests := []struct {
		name      string
		count     int64
		number    int
		wantSkip  int64
		wantLimit int64
	}{
		{"four items single page", 4, 1, 0, 4},
		{"seven items page 1", 7, 1, 0, 3},
		{"seven items page 2", 7, 2, 3, 4},
		{"six items page 2", 6, 2, 3, 3},
		{"empty list", 0, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg, err := p.Page(tt.number, tt.count)
			if err != nil {
				t.Fatalf("Page: %v", err)
			}
			if pg.Skip != tt.wantSkip || pg.Limit != tt.wantLimit {
				t.Errorf("window: got skip=%d limit=%d, want skip=%d limit=%d",
					pg.Skip, pg.Limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestPage_OutOfRange(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}
	for _, n := range []int{0, -1, 2} {
		if _, err := p.Page(n, 4); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("Page(%d, 4): expected ErrInvalidPage, got %v", n, err)
		}
	}
}

func TestPage_DisplayRange(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}
	pg, _ := p.Page(2, 7)
	if pg.Start != 4 || pg.End != 7 {
		t.Errorf("range: got %d-%d, want 4-7", pg.Start, pg.End)
	}
	if !pg.HasPrev() || pg.HasNext() {
		t.Errorf("HasPrev=%v HasNext=%v, want true,false", pg.HasPrev(), pg.HasNext())
	}
	if pg.PrevNumber() != 1 {
		t.Errorf("PrevNumber: got %d", pg.PrevNumber())
	}

	empty, _ := p.Page(1, 0)
	if empty.Start != 0 || empty.End != 0 {
		t.Errorf("empty range: got %d-%d", empty.Start, empty.End)
	}
}

func TestResolve(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}

	tests := []struct {
		raw     string
		count   int64
		want    int
		wantErr bool
	}{
		{"", 7, 1, false},
		{"1", 7, 1, false},
		{" 2 ", 7, 2, false},
		{"last", 7, 2, false},
		{"last", 0, 1, false},
		{"3", 7, 0, true},
		{"abc", 7, 0, true},
		{"0", 7, 0, true},
	}
	for _, tt := range tests {
		pg, err := p.Resolve(tt.raw, tt.count)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPage) {
				t.Errorf("Resolve(%q): expected ErrInvalidPage, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.raw, err)
			continue
		}
		if pg.Number != tt.want {
			t.Errorf("Resolve(%q).Number = %d, want %d", tt.raw, pg.Number, tt.want)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(0, -1)
	if p.PerPage != DefaultPerPage || p.Orphans != 0 {
		t.Errorf("got %+v", p)
	}
	p = New(3, 3)
	if p.Orphans != 0 {
		t.Errorf("orphans >= per page should reset to 0, got %d", p.Orphans)
	}
}

func TestApplyToFind(t *testing.T) {
	p := Paginator{PerPage: 3, Orphans: 1}
	pg, _ := p.Page(2, 7)
	find := pg.ApplyToFind(options.Find())
	if find.Skip == nil || *find.Skip != 3 {
		t.Errorf("Skip: got %v", find.Skip)
	}
	if find.Limit == nil || *find.Limit != 4 {
		t.Errorf("Limit: got %v", find.Limit)
	}
}

func TestParsePage(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page=last", nil)
	if got := ParsePage(req); got != "last" {
		t.Errorf("ParsePage: got %q", got)
	}
}
