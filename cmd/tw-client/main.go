package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"twflow/internal/assetcache"
	"twflow/internal/config"
	"twflow/internal/projection"
	"twflow/internal/snapshot"
	"twflow/internal/util"
	"twflow/internal/view"
)

// Styles.
var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statsStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	colHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	improvedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	worsenedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Messages.
type installedMsg struct{ err error }
type loadedMsg struct{ snap *snapshot.Snapshot }
type loadErrMsg struct{ err error }

type model struct {
	origin    string
	loader    *snapshot.Loader
	presenter *view.Presenter

	vp            viewport.Model
	ready         bool
	width, height int
	loading       bool
	offline       bool // asset cache install failed, running from cache
	loadedAt      time.Time
}

func (m *model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snap, err := m.loader.Load(ctx, m.origin+assetcache.DataSuffix)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return loadedMsg{snap: snap}
	}
}

func installCmd(cache *assetcache.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cache.Install(ctx); err != nil {
			return installedMsg{err: err}
		}
		return installedMsg{err: cache.Activate()}
	}
}

func (m *model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerHeight := 4
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - headerHeight
		}
		m.vp.SetContent(m.content())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.presenter.Close()
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.loadCmd()
			}
		}

	case installedMsg:
		m.offline = msg.err != nil

	case loadedMsg:
		m.loading = false
		m.loadedAt = time.Now()
		if err := m.presenter.Apply(projection.Project(msg.snap)); err != nil {
			m.presenter.ApplyError(err)
		}
		m.vp.SetContent(m.content())

	case loadErrMsg:
		m.loading = false
		m.presenter.ApplyError(msg.err)
		m.vp.SetContent(m.content())
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// content renders the chart and table below the header.
func (m *model) content() string {
	var b strings.Builder

	if m.presenter.Placeholder != "" {
		b.WriteString(placeholderStyle.Render(m.presenter.Placeholder))
		b.WriteString("\n")
		return b.String()
	}

	if h, ok := m.presenter.Handle().(*view.TextHandle); ok && h != nil {
		b.WriteString(h.View())
		b.WriteString("\n")
	}
	b.WriteString(renderTable(m.presenter.Rows))
	return b.String()
}

func renderTable(rows []projection.TableRow) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	header := fmt.Sprintf("%-3s %-7s %-10s %-11s %-5s %-10s %-11s %-5s %-10s %-10s %-14s %-10s",
		"#", "id", "name", "prior date", "rank", "buy", "curr date", "rank", "buy", "total", "rank delta", "buy delta")
	b.WriteString(colHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, r := range rows {
		deltaStyle := dimStyle
		if strings.HasPrefix(r.RankDelta, "improved") {
			deltaStyle = improvedStyle
		} else if strings.HasPrefix(r.RankDelta, "worsened") {
			deltaStyle = worsenedStyle
		}
		line := fmt.Sprintf("%-3d %-7s %-10s %-11s %-5s %-10s %-11s %-5s %-10s %-10s %s %-10s",
			r.Position, r.ID, r.Name,
			r.PriorDate, r.PriorRank, r.PriorBuy,
			r.CurrDate, r.CurrRank, r.CurrBuy,
			r.Total,
			deltaStyle.Render(fmt.Sprintf("%-14s", r.RankDelta)),
			r.BuyDelta)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := "twflow — foreign net-buy top-10 intersection"
	if m.offline {
		title += "  [offline cache]"
	}
	if m.loading {
		title += "  [reloading]"
	}

	metaLine := metaStyle.Render(m.presenter.Meta)
	statsLine := statsStyle.Render(m.presenter.Stats)
	if m.presenter.Placeholder == "" && strings.Contains(m.presenter.Meta, "failed") {
		metaLine = errStyle.Render(m.presenter.Meta)
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		titleStyle.Render(title),
		metaLine,
		statsLine,
		m.vp.View(),
		dimStyle.Render("r: reload  q: quit"))
}

func main() {
	cfgPath := "config/twflow.yaml"
	if p := os.Getenv("TWFLOW_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger("warn") // keep the TTY clean
	util.SetDefault(logger)

	// Shell manifest mirrors what the server publishes.
	manifest := []string{"/", "/app.js", "/manifest.json"}
	cache := assetcache.New(cfg.Cache.Root, cfg.Cache.Name, cfg.Cache.Origin, manifest, logger)

	m := &model{
		origin:    cfg.Cache.Origin,
		loader:    snapshot.NewLoaderWithClient(cache.Client()),
		presenter: view.NewPresenter(&view.TextChart{BarWidth: 40}),
		loading:   true,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		p.Send(installCmd(cache)())
	}()
	if _, err := p.Run(); err != nil {
		log.Fatalf("running TUI: %v", err)
	}
}
