package chart

import "sync"

// Element ids the loader writes into.
const (
	BotContainerID       = "bot-chart-container"
	PortfolioContainerID = "portfolio-chart-container"

	BotInfoID           = "bot-info"
	DetailedAnalysisID  = "detailed-analysis"
	PortfolioAnalysisID = "portfolio-analysis"

	StrategyFilterID = "strategy-filter"
	PeriodFilterID   = "period-filter"

	BotIDAttr = "data-bot-id"
)

// Page is the part of the document the loader touches.
type Page interface {
	// Has reports whether an element with the id exists.
	Has(id string) bool
	// SetHTML replaces the element's content. Missing elements are ignored and
	// reported with false.
	SetHTML(id, markup string) bool
	// Attr returns an attribute of the element.
	Attr(id, name string) (string, bool)
}

// MemoryPage is an in-memory Page.
type MemoryPage struct {
	mu       sync.Mutex
	elements map[string]*memElement
}

type memElement struct {
	html   string
	attrs  map[string]string
	writes int
}

func NewMemoryPage() *MemoryPage {
	return &MemoryPage{elements: make(map[string]*memElement)}
}

// Add declares an element with optional attributes given as name/value pairs.
func (p *MemoryPage) Add(id string, attrs ...string) *MemoryPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := &memElement{attrs: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.attrs[attrs[i]] = attrs[i+1]
	}
	p.elements[id] = el
	return p
}

func (p *MemoryPage) Has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.elements[id]
	return ok
}

func (p *MemoryPage) SetHTML(id, markup string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return false
	}
	el.html = markup
	el.writes++
	return true
}

func (p *MemoryPage) Attr(id, name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return "", false
	}
	v, ok := el.attrs[name]
	return v, ok
}

// HTML returns the current content of an element.
func (p *MemoryPage) HTML(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		return el.html
	}
	return ""
}

// Writes counts SetHTML calls on an element.
func (p *MemoryPage) Writes(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		return el.writes
	}
	return 0
}
