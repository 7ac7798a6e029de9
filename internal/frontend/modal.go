package frontend

// Surface is the part of a document the modal needs. The browser script implements
// the same contract against the DOM.
type Surface interface {
	// FindOverlay returns an existing overlay, if any.
	FindOverlay() (Overlay, bool)
	// CreateOverlay appends a new overlay element.
	CreateOverlay() Overlay
	// InjectStyles adds a style block to the document head.
	InjectStyles(css string)
}

// Overlay is a modal element.
type Overlay interface {
	// HasBody reports whether the element carries a message body. Pages may
	// ship their own .modal markup without one.
	HasBody() bool
	SetMessage(msg string)
	Show()
	Hide()
}

// Modal lazily builds a single overlay and reuses it for every message.
type Modal struct {
	surface Surface
	overlay Overlay
	shown   bool
}

// NewModal binds a modal to a surface without creating anything yet.
func NewModal(s Surface) *Modal {
	return &Modal{surface: s}
}

// Show displays msg, creating the overlay and injecting its styles on first use.
// An existing overlay is reused only when it has a message body.
func (m *Modal) Show(msg string) {
	if m.overlay == nil {
		if o, ok := m.surface.FindOverlay(); ok && o.HasBody() {
			m.overlay = o
		} else {
			m.overlay = m.surface.CreateOverlay()
			m.surface.InjectStyles(ModalCSS)
		}
	}
	m.overlay.SetMessage(msg)
	m.overlay.Show()
	m.shown = true
}

// Close hides the overlay. It is a no-op before the first Show.
func (m *Modal) Close() {
	if m.overlay == nil || !m.shown {
		return
	}
	m.overlay.Hide()
	m.shown = false
}

// ClickOverlay handles a click on the overlay; only clicks outside the content close it.
func (m *Modal) ClickOverlay(insideContent bool) {
	if !insideContent {
		m.Close()
	}
}

// Shown reports whether the modal is visible.
func (m *Modal) Shown() bool { return m.shown }

// ModalCSS is injected once when the overlay is first created.
const ModalCSS = `
.modal {
    display: none;
    position: fixed;
    z-index: 2000;
    left: 0;
    top: 0;
    width: 100%;
    height: 100%;
    background-color: rgba(0, 0, 0, 0.7);
    opacity: 0;
    transition: opacity 0.3s ease;
}
.modal.show {
    opacity: 1;
    display: flex;
    align-items: center;
    justify-content: center;
}
.modal-content {
    background-color: white;
    padding: 2rem;
    border-radius: 5px;
    max-width: 500px;
    width: 90%;
    position: relative;
    box-shadow: 0 5px 15px rgba(0, 0, 0, 0.3);
    transform: translateY(-20px);
    transition: transform 0.3s ease;
}
.modal.show .modal-content {
    transform: translateY(0);
}
.close-button {
    position: absolute;
    top: 10px;
    right: 15px;
    font-size: 1.5rem;
    cursor: pointer;
}
.close-button:hover {
    color: var(--accent-color);
}
.modal-body {
    margin-top: 1rem;
    font-family: var(--font-body);
    line-height: 1.6;
}
`
