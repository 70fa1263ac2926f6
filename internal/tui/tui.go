// Package tui is the interactive terminal browser for the catalog.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

const (
	pageMain   = "main"
	pageDetail = "detail"
)

// Options configures the browser.
type Options struct {
	// PrefetchConcurrency bounds detail lookups for the visible page
	PrefetchConcurrency int
	Logger              *slog.Logger
}

// Browser is a tview application over a catalog.Store.
type Browser struct {
	store  *catalog.Store
	opts   Options
	logger *slog.Logger

	app    *tview.Application
	pages  *tview.Pages
	search *tview.InputField
	list   *tview.List
	status *tview.TextView
	detail *tview.TextView

	ctx      context.Context
	prefetch prefetchGate
}

// New builds the widgets. Nothing is drawn until Run.
func New(store *catalog.Store, opts Options) *Browser {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	b := &Browser{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		ctx:    context.Background(),
	}

	b.search = tview.NewInputField().
		SetLabel("Search: ").
		SetFieldWidth(0).
		SetChangedFunc(func(text string) {
			b.store.SetQuery(text)
			b.refresh()
		}).
		SetDoneFunc(func(key tcell.Key) {
			b.app.SetFocus(b.list)
		})

	b.list = tview.NewList().
		SetSelectedFunc(func(index int, main, secondary string, shortcut rune) {
			b.open(index)
		})
	b.list.SetBorder(true).SetTitle(" Games ")
	b.list.SetInputCapture(b.listKeys)

	b.status = tview.NewTextView().SetDynamicColors(true)

	b.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetDoneFunc(func(key tcell.Key) {
			b.store.Dismiss()
		})
	b.detail.SetBorder(true)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.search, 1, 0, false).
		AddItem(b.list, 0, 1, true).
		AddItem(b.status, 1, 0, false)

	b.pages.AddPage(pageMain, layout, true, true)
	b.pages.AddPage(pageDetail, centered(b.detail, 80, 24), true, false)

	store.Selector().OnChange(func(sel catalog.Selection) {
		// OnChange may fire on the UI goroutine, where QueueUpdateDraw must not block.
		go b.app.QueueUpdateDraw(func() {
			b.renderSelection(sel)
		})
	})

	return b
}

// Run loads the catalog in the background and blocks until the user quits
// or ctx is cancelled.
func (b *Browser) Run(ctx context.Context) error {
	b.ctx = ctx
	b.refresh()

	go func() {
		if err := b.store.Reload(ctx); err != nil {
			b.logger.Error("catalog load failed", "error", err)
		}
		b.app.QueueUpdateDraw(b.refresh)
	}()
	go func() {
		<-ctx.Done()
		b.app.Stop()
	}()

	return b.app.SetRoot(b.pages, true).EnableMouse(true).Run()
}

func (b *Browser) listKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyRight, tcell.KeyPgDn:
		b.store.NextPage()
		b.refresh()
		return nil
	case tcell.KeyLeft, tcell.KeyPgUp:
		b.store.PrevPage()
		b.refresh()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'n':
			b.store.NextPage()
			b.refresh()
			return nil
		case 'p':
			b.store.PrevPage()
			b.refresh()
			return nil
		case '/':
			b.app.SetFocus(b.search)
			return nil
		case 'r':
			go func() {
				if err := b.store.Reload(b.ctx); err != nil {
					b.logger.Error("catalog reload failed", "error", err)
				}
				b.app.QueueUpdateDraw(b.refresh)
			}()
			return nil
		case 'q':
			b.app.Stop()
			return nil
		}
	}
	return event
}

// refresh redraws the list from the store's current view. Must run on the UI goroutine.
func (b *Browser) refresh() {
	view := b.store.View()
	cache := b.store.Resolver().Cache()

	current := b.list.GetCurrentItem()
	b.list.Clear()
	unresolved := false
	for _, entry := range view.Page.Items {
		rec, ok := cache.Lookup(entry.Identifier)
		if !ok {
			unresolved = true
		}
		main, secondary := formatItem(entry, rec, ok)
		b.list.AddItem(main, secondary, 0, nil)
	}
	if current < b.list.GetItemCount() {
		b.list.SetCurrentItem(current)
	}
	b.status.SetText(formatStatus(view))

	if unresolved && b.ctx.Err() == nil {
		b.startPrefetch()
	}
}

// startPrefetch resolves the visible page in the background and redraws once
// done. While one prefetch runs, further calls are dropped; the redraw that
// follows it starts the next one if the page changed meanwhile.
func (b *Browser) startPrefetch() {
	b.prefetch.run(func() {
		b.store.PrefetchVisible(b.ctx, b.opts.PrefetchConcurrency)
	}, func() {
		if b.ctx.Err() != nil {
			return
		}
		b.app.QueueUpdateDraw(b.refresh)
	})
}

// prefetchGate lets one background prefetch run at a time.
type prefetchGate struct {
	busy atomic.Bool
}

// run starts work in a goroutine unless one is already running and reports
// whether it did. done runs after the gate is released, so it may start the
// next run.
func (g *prefetchGate) run(work, done func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		work()
		g.busy.Store(false)
		done()
	}()
	return true
}

func (b *Browser) open(index int) {
	view := b.store.View()
	if index < 0 || index >= len(view.Page.Items) {
		return
	}
	if _, err := b.store.Select(b.ctx, view.Page.Items[index].Identifier); err != nil {
		b.logger.Warn("select failed", "error", err)
	}
}

func (b *Browser) renderSelection(sel catalog.Selection) {
	if sel.State == catalog.SelectionClosed {
		b.pages.HidePage(pageDetail)
		b.app.SetFocus(b.list)
		b.refresh()
		return
	}
	title := ""
	if sel.Entry != nil {
		title = " App " + sel.Entry.Identifier + " "
	}
	b.detail.SetTitle(title)
	b.detail.SetText(formatDetail(sel))
	b.detail.ScrollToBeginning()
	b.pages.ShowPage(pageDetail)
	b.app.SetFocus(b.detail)
}

// centered wraps p in a fixed-size box in the middle of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// formatItem returns the list texts for an entry and its cached record, if any.
func formatItem(entry catalog.Entry, rec catalog.DetailRecord, resolved bool) (string, string) {
	name := catalog.PlaceholderName(entry.Identifier)
	if resolved {
		name = rec.DisplayName
	}
	secondary := "App ID " + entry.Identifier
	if entry.SizeBytes > 0 {
		secondary += " · " + catalog.FormatSize(entry.SizeBytes)
	}
	if !resolved {
		secondary += " · loading"
	} else if rec.State == catalog.StateFailed {
		secondary += " · details unavailable"
	}
	return tview.Escape(name), secondary
}

// formatStatus renders the one-line status bar.
func formatStatus(view catalog.View) string {
	if view.Err != nil && !view.Loaded {
		return "[red]Failed to load catalog:[-] " + tview.Escape(view.Err.Error()) + "  (r to retry)"
	}
	if !view.Loaded {
		return "Loading catalog..."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page %d/%d · %d of %d games",
		view.Page.CurrentPage, view.Page.TotalPages, view.Page.TotalItems, view.CatalogSize)
	if view.Query != "" {
		fmt.Fprintf(&sb, " matching %q", view.Query)
	}
	if view.Err != nil {
		sb.WriteString(" · [yellow]reload failed[-]")
	}
	sb.WriteString("  [gray]n/p page · / search · enter open · r reload · q quit[-]")
	return sb.String()
}

// formatDetail renders the detail pane for a selection.
func formatDetail(sel catalog.Selection) string {
	if sel.State == catalog.SelectionLoading || sel.Detail == nil {
		return "Loading details..."
	}
	d := sel.Detail
	var sb strings.Builder
	fmt.Fprintf(&sb, "[::b]%s[::-]\n\n", tview.Escape(d.DisplayName))
	if d.State == catalog.StateFailed {
		sb.WriteString("[yellow]Store details unavailable.[-]\n\n")
	}
	if d.ShortDescription != "" {
		sb.WriteString(tview.Escape(d.ShortDescription) + "\n\n")
	}
	if len(d.Genres) > 0 {
		sb.WriteString("Genres: " + tview.Escape(strings.Join(d.Genres, ", ")) + "\n")
	}
	sb.WriteString("Cover: " + d.CoverImageURL + "\n")
	for i, s := range d.ScreenshotURLs {
		fmt.Fprintf(&sb, "Screenshot %d: %s\n", i+1, s)
	}
	if sel.Entry != nil {
		sb.WriteString("\nDownload: " + sel.Entry.DownloadURL + "\n")
	}
	sb.WriteString("\n[gray]esc to close[-]")
	return sb.String()
}
