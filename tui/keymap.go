package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/treykane/vault-panes/logging"
)

// Action names accepted in the config "keybindings" override map. Each one
// identifies a pane operation the controller can dispatch; the user presses a
// key, the key map resolves it, and Update calls the matching manager method.
const (
	ActionSplitVertical   = "pane.split.vertical"
	ActionSplitHorizontal = "pane.split.horizontal"
	ActionClosePane       = "pane.close"
	ActionFocusNext       = "pane.focus.next"
	ActionFocusPrev       = "pane.focus.prev"
	ActionCloseTab        = "tab.close"
	ActionNextTab         = "tab.next"
	ActionPrevTab         = "tab.prev"
	ActionPinTab          = "tab.pin"
	ActionHistoryBack     = "history.back"
	ActionHistoryForward  = "history.forward"
)

// KeyMap holds the key bindings for every pane operation the controller
// handles. Host applications can surface it through bubbles/help.
type KeyMap struct {
	SplitVertical   key.Binding
	SplitHorizontal key.Binding
	ClosePane       key.Binding
	FocusNext       key.Binding
	FocusPrev       key.Binding
	CloseTab        key.Binding
	NextTab         key.Binding
	PrevTab         key.Binding
	PinTab          key.Binding
	HistoryBack     key.Binding
	HistoryForward  key.Binding
}

// DefaultKeyMap returns the factory key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SplitVertical:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "split below")),
		SplitHorizontal: key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "split right")),
		ClosePane:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "close pane")),
		FocusNext:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		FocusPrev:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		CloseTab:        key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close tab")),
		NextTab:         key.NewBinding(key.WithKeys("ctrl+pgdown", "]"), key.WithHelp("]", "next tab")),
		PrevTab:         key.NewBinding(key.WithKeys("ctrl+pgup", "["), key.WithHelp("[", "prev tab")),
		PinTab:          key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "pin tab")),
		HistoryBack:     key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "back")),
		HistoryForward:  key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "forward")),
	}
}

// bindingFor maps an action name to the binding it configures. Returns nil
// for unknown actions so overrides with typos can be reported.
func (k *KeyMap) bindingFor(action string) *key.Binding {
	switch action {
	case ActionSplitVertical:
		return &k.SplitVertical
	case ActionSplitHorizontal:
		return &k.SplitHorizontal
	case ActionClosePane:
		return &k.ClosePane
	case ActionFocusNext:
		return &k.FocusNext
	case ActionFocusPrev:
		return &k.FocusPrev
	case ActionCloseTab:
		return &k.CloseTab
	case ActionNextTab:
		return &k.NextTab
	case ActionPrevTab:
		return &k.PrevTab
	case ActionPinTab:
		return &k.PinTab
	case ActionHistoryBack:
		return &k.HistoryBack
	case ActionHistoryForward:
		return &k.HistoryForward
	default:
		return nil
	}
}

// WithOverrides returns a copy of the key map with per-action key overrides
// applied. An override replaces the action's full default key set with the
// single configured key, keeping the help label in sync. Unknown action names
// and empty keys are logged and ignored so a typo in config.json cannot
// unbind anything silently.
func (k KeyMap) WithOverrides(overrides map[string]string) KeyMap {
	log := logging.New("tui")
	for action, raw := range overrides {
		action = strings.TrimSpace(action)
		keyStr := normalizeKeyString(raw)
		if action == "" || keyStr == "" {
			continue
		}
		binding := k.bindingFor(action)
		if binding == nil {
			log.Warn("ignore unknown keybinding action", "action", action)
			continue
		}
		binding.SetKeys(keyStr)
		binding.SetHelp(keyStr, binding.Help().Desc)
	}
	return k
}

// normalizeKeyString converts a user-provided key string into the canonical
// lowercase form Bubble Tea reports. A single uppercase letter becomes
// "shift+<letter>" so config files can use either form.
func normalizeKeyString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len([]rune(s)) == 1 && strings.ToUpper(s) == s && strings.ToLower(s) != s {
		return "shift+" + strings.ToLower(s)
	}
	return strings.ToLower(s)
}
