// Package view applies projections to display sinks and owns the lifecycle
// of the single chart handle.
package view

import (
	"twflow/internal/projection"
)

// Handle is one live chart instance. It must be destroyed before the next
// render or the old rendering context leaks.
type Handle interface {
	Destroy()
}

// Renderer turns a chart dataset into a live chart handle.
type Renderer interface {
	Render(ds *projection.ChartDataset) (Handle, error)
}

// Presenter holds the current view state and the previous chart handle.
// One Presenter serves one page view; Apply and ApplyError are the only ways
// state changes.
type Presenter struct {
	renderer Renderer
	handle   Handle

	Meta        string
	Stats       string
	Rows        []projection.TableRow
	Placeholder string // non-empty while showing the empty state
}

// NewPresenter creates a Presenter rendering charts through r.
func NewPresenter(r Renderer) *Presenter {
	return &Presenter{renderer: r}
}

// Handle returns the current chart handle, or nil when no chart is shown.
func (p *Presenter) Handle() Handle { return p.handle }

// Apply updates every sink from a successful projection. Any prior chart is
// destroyed first, on the empty path too; the empty path creates no new one.
func (p *Presenter) Apply(proj *projection.Projection) error {
	if p.handle != nil {
		p.handle.Destroy()
		p.handle = nil
	}

	p.Meta = proj.Meta
	p.Stats = proj.Stats

	if proj.Empty {
		p.Placeholder = proj.Placeholder
		p.Rows = nil
		return nil
	}

	p.Placeholder = ""
	p.Rows = proj.Rows

	h, err := p.renderer.Render(proj.Chart)
	if err != nil {
		return err
	}
	p.handle = h
	return nil
}

// ApplyError surfaces a load failure: the meta region shows a generic
// failure line and the stats region the error detail. The chart and table
// keep their last contents.
func (p *Presenter) ApplyError(err error) {
	p.Meta = "snapshot load failed — showing last known data"
	p.Stats = err.Error()
}

// Close destroys the current chart handle, if any.
func (p *Presenter) Close() {
	if p.handle != nil {
		p.handle.Destroy()
		p.handle = nil
	}
}
