package view

import (
	"errors"
	"testing"

	"twflow/internal/projection"
	"twflow/internal/snapshot"
)

type fakeHandle struct {
	destroyed bool
}

func (h *fakeHandle) Destroy() { h.destroyed = true }

type fakeRenderer struct {
	rendered int
	err      error
	last     *fakeHandle
}

func (r *fakeRenderer) Render(ds *projection.ChartDataset) (Handle, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.rendered++
	r.last = &fakeHandle{}
	return r.last, nil
}

func nonEmptyProjection() *projection.Projection {
	return projection.Project(&snapshot.Snapshot{
		Mode:         "intersection_top10_per_day",
		TradingDates: []string{"2026-08-28"},
		Count:        1,
		Stocks: []snapshot.Stock{
			{ID: "2330", Name: "台積電",
				Day1:        &snapshot.DayMetric{Date: "2026-08-28", Rank: 1, NetBuyLots: 500},
				TotalNetBuy: 500},
		},
	})
}

func emptyProjection() *projection.Projection {
	return projection.Project(&snapshot.Snapshot{Stocks: []snapshot.Stock{}})
}

func TestPresenterApply(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.Handle() == nil {
		t.Fatal("Handle() = nil after non-empty Apply")
	}
	if len(p.Rows) != 1 {
		t.Errorf("len(Rows) = %d, want 1", len(p.Rows))
	}
	if p.Placeholder != "" {
		t.Errorf("Placeholder = %q, want empty", p.Placeholder)
	}
}

func TestPresenterApplyDestroysPriorHandle(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	first := r.last

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if !first.destroyed {
		t.Error("prior handle not destroyed on re-apply")
	}
	if p.Handle() == first {
		t.Error("Handle() still returns the destroyed handle")
	}
	if r.rendered != 2 {
		t.Errorf("rendered = %d, want 2", r.rendered)
	}
}

func TestPresenterApplyEmptyTearsDownChart(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	chartHandle := r.last

	if err := p.Apply(emptyProjection()); err != nil {
		t.Fatalf("empty Apply() error = %v", err)
	}
	if !chartHandle.destroyed {
		t.Error("prior handle not destroyed on empty apply")
	}
	if p.Handle() != nil {
		t.Error("Handle() != nil after empty apply; the empty path must not create a chart")
	}
	if p.Placeholder == "" {
		t.Error("Placeholder empty after empty apply")
	}
	if p.Rows != nil {
		t.Errorf("Rows = %v, want nil", p.Rows)
	}
	if r.rendered != 1 {
		t.Errorf("rendered = %d, want 1", r.rendered)
	}
}

func TestPresenterApplyRenderError(t *testing.T) {
	r := &fakeRenderer{err: errors.New("render failed")}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err == nil {
		t.Fatal("Apply() error = nil, want render error")
	}
	if p.Handle() != nil {
		t.Error("Handle() != nil after failed render")
	}
}

func TestPresenterApplyError(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	handle := p.Handle()
	rows := p.Rows

	p.ApplyError(errors.New("snapshot fetch returned HTTP 500"))

	if p.Meta != "snapshot load failed — showing last known data" {
		t.Errorf("Meta = %q", p.Meta)
	}
	if p.Stats != "snapshot fetch returned HTTP 500" {
		t.Errorf("Stats = %q", p.Stats)
	}
	if p.Handle() != handle {
		t.Error("ApplyError replaced the chart handle")
	}
	if len(p.Rows) != len(rows) {
		t.Error("ApplyError changed the table rows")
	}
}

func TestPresenterClose(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPresenter(r)

	if err := p.Apply(nonEmptyProjection()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	h := r.last
	p.Close()
	if !h.destroyed {
		t.Error("Close() did not destroy the handle")
	}
	if p.Handle() != nil {
		t.Error("Handle() != nil after Close")
	}
	p.Close() // second close is a no-op
}
