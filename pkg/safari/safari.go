// Package safari drives Safari through JavaScript for Automation (osascript).
package safari

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/irfansharif/readlater/pkg/browser"
)

// errAutomation is returned when the terminal may not control Safari at all.
var errAutomation = errors.New("Automation permission required: allow your terminal to control Safari in System Settings > Privacy & Security > Automation")

// pollInterval is how often WaitComplete checks on a loading tab.
const pollInterval = 500 * time.Millisecond

// Tabs implements browser.Tabs for Safari. Tab IDs have the form
// "<window id>:<tab index>".
type Tabs struct {
	// run executes a JXA script; swapped out in tests.
	run func(ctx context.Context, script string, args ...string) ([]byte, error)
}

var _ browser.Tabs = (*Tabs)(nil)

// New creates a Safari-backed Tabs.
func New() *Tabs {
	return &Tabs{run: runJXA}
}

// runJXA runs script with osascript. The script's run(argv) handler receives
// args.
func runJXA(ctx context.Context, script string, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-l", "JavaScript", "-e", script}, args...)
	out, err := exec.CommandContext(ctx, "osascript", cmdArgs...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, classify(strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("osascript: %w", err)
	}
	return out, nil
}

// classify maps osascript error output onto the errors callers act on.
func classify(stderr string) error {
	switch {
	case strings.Contains(stderr, "-1743"):
		return errAutomation
	case strings.Contains(stderr, "Allow JavaScript from Apple Events"),
		strings.Contains(stderr, "JavaScript from Apple Events"):
		return fmt.Errorf("%w: enable Develop > Allow JavaScript from Apple Events in Safari", browser.ErrAccessDenied)
	}
	return fmt.Errorf("osascript: %s", stderr)
}

// findTab is prepended to scripts that operate on an existing tab.
const findTab = `
function findTab(safari, id) {
    var parts = id.split(":");
    var win = safari.windows.byId(parseInt(parts[0], 10));
    return {win: win, tab: win.tabs[parseInt(parts[1], 10)]};
}
function describe(win, tab) {
    return JSON.stringify({id: win.id() + ":" + tab.index(), url: tab.url() || "", title: tab.name() || ""});
}
`

func parseTab(out []byte) (browser.Tab, error) {
	var tab browser.Tab
	if err := json.Unmarshal(out, &tab); err != nil {
		return browser.Tab{}, fmt.Errorf("parsing JXA output: %w", err)
	}
	return tab, nil
}

// Active implements browser.Tabs.
func (s *Tabs) Active(ctx context.Context) (browser.Tab, error) {
	script := findTab + `
function run(argv) {
    var safari = Application("Safari");
    if (safari.windows.length === 0) { throw new Error("no Safari windows open"); }
    var win = safari.windows[0];
    return describe(win, win.currentTab());
}
`
	out, err := s.run(ctx, script)
	if err != nil {
		return browser.Tab{}, err
	}
	return parseTab(out)
}

// Create implements browser.Tabs.
func (s *Tabs) Create(ctx context.Context, url string, active bool) (browser.Tab, error) {
	script := findTab + `
function run(argv) {
    var safari = Application("Safari");
    if (safari.windows.length === 0) { safari.Document().make(); }
    var win = safari.windows[0];
    var tab = safari.Tab({url: argv[0]});
    win.tabs.push(tab);
    tab = win.tabs[win.tabs.length - 1];
    if (argv[1] === "true") { win.currentTab = tab; }
    return describe(win, tab);
}
`
	out, err := s.run(ctx, script, url, fmt.Sprint(active))
	if err != nil {
		return browser.Tab{}, err
	}
	return parseTab(out)
}

// Capture implements browser.Tabs. It serializes the live DOM, which needs
// Safari's "Allow JavaScript from Apple Events"; without it the call fails
// with browser.ErrAccessDenied.
func (s *Tabs) Capture(ctx context.Context, tab browser.Tab) (browser.Page, error) {
	script := findTab + `
function run(argv) {
    var safari = Application("Safari");
    var t = findTab(safari, argv[0]);
    var html = safari.doJavaScript("document.documentElement.outerHTML", {in: t.tab});
    var title = safari.doJavaScript("document.title", {in: t.tab});
    return JSON.stringify({url: t.tab.url() || "", title: title || "", html: html || ""});
}
`
	out, err := s.run(ctx, script, tab.ID)
	if err != nil {
		return browser.Page{}, err
	}
	var page struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		HTML  string `json:"html"`
	}
	if err := json.Unmarshal(out, &page); err != nil {
		return browser.Page{}, fmt.Errorf("parsing JXA output: %w", err)
	}
	return browser.Page{URL: page.URL, Title: page.Title, HTML: page.HTML}, nil
}

// readyState returns document.readyState, or the page source when scripting
// the page isn't allowed.
func (s *Tabs) readyState(ctx context.Context, tab browser.Tab) (state, source string, err error) {
	script := findTab + `
function run(argv) {
    var safari = Application("Safari");
    var t = findTab(safari, argv[0]);
    try {
        return JSON.stringify({state: safari.doJavaScript("document.readyState", {in: t.tab})});
    } catch (e) {
        return JSON.stringify({source: t.tab.source() || ""});
    }
}
`
	out, err := s.run(ctx, script, tab.ID)
	if err != nil {
		return "", "", err
	}
	var res struct {
		State  string `json:"state"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(out, &res); err != nil {
		return "", "", fmt.Errorf("parsing JXA output: %w", err)
	}
	return res.State, res.Source, nil
}

// WaitComplete implements browser.Tabs. With page scripting allowed it waits
// for document.readyState to become "complete"; otherwise it waits for two
// consecutive reads of the page source to match.
func (s *Tabs) WaitComplete(ctx context.Context, tab browser.Tab) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var prev string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state, source, err := s.readyState(ctx, tab)
		if err != nil {
			if errors.Is(err, errAutomation) {
				return err
			}
			// The tab is gone.
			return fmt.Errorf("%w: %v", browser.ErrTabClosed, err)
		}
		if state == "complete" {
			return nil
		}
		if state == "" && strings.TrimSpace(source) != "" {
			if source == prev {
				return nil
			}
			prev = source
		}
	}
}

// Remove implements browser.Tabs.
func (s *Tabs) Remove(ctx context.Context, tab browser.Tab) error {
	script := findTab + `
function run(argv) {
    var safari = Application("Safari");
    findTab(safari, argv[0]).tab.close();
    return "";
}
`
	_, err := s.run(ctx, script, tab.ID)
	return err
}
