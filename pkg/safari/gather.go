package safari

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// OpenTab is a tab found in one of Safari's tab sources.
type OpenTab struct {
	URL        string
	Title      string
	Source     string // "local" or "readinglist"
	LastViewed time.Time
}

// GatherTabs collects tabs from open Safari windows and the Reading List.
// Each source is best-effort: failures come back as warnings. Tabs are
// deduplicated by URL within each source, keeping the most recently viewed.
func (s *Tabs) GatherTabs(ctx context.Context) (map[string][]OpenTab, []error) {
	result := make(map[string][]OpenTab)
	var warnings []error

	for _, src := range []struct {
		name  string
		label string
		fn    func(context.Context) ([]OpenTab, error)
	}{
		{"local", "local tabs", s.windowTabs},
		{"readinglist", "Reading List", readingListTabs},
	} {
		tabs, err := src.fn(ctx)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", src.label, err))
		}
		if len(tabs) > 0 {
			result[src.name] = deduplicateByURL(tabs)
		}
	}
	return result, warnings
}

func (s *Tabs) windowTabs(ctx context.Context) ([]OpenTab, error) {
	script := `
function run(argv) {
    var safari = Application("Safari");
    var tabs = [];
    for (var w = 0; w < safari.windows.length; w++) {
        var win = safari.windows[w];
        for (var t = 0; t < win.tabs.length; t++) {
            var tab = win.tabs[t];
            tabs.push({url: tab.url() || "", title: tab.name() || ""});
        }
    }
    return JSON.stringify(tabs);
}
`
	out, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	return parseWindowTabs(out)
}

func parseWindowTabs(out []byte) ([]OpenTab, error) {
	var raw []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parsing JXA output: %w", err)
	}
	var tabs []OpenTab
	for _, r := range raw {
		if r.URL == "" {
			continue
		}
		tabs = append(tabs, OpenTab{URL: r.URL, Title: r.Title, Source: "local"})
	}
	return tabs, nil
}

// readingListTabs reads Safari's Reading List from Bookmarks.plist. Requires
// Full Disk Access.
//
// python3's plistlib is used rather than plutil because Bookmarks.plist
// contains NSDate values that plutil -convert json can't represent.
func readingListTabs(ctx context.Context) ([]OpenTab, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	plistPath := filepath.Join(home, "Library", "Safari", "Bookmarks.plist")
	if _, err := os.Stat(plistPath); err != nil {
		return nil, fmt.Errorf("Bookmarks.plist not found (Full Disk Access required)")
	}

	script := `
import plistlib, json, sys
with open(sys.argv[1], 'rb') as f:
    data = plistlib.load(f)
items = []
for child in data.get('Children', []):
    if child.get('Title') == 'com.apple.ReadingList':
        for item in child.get('Children', []):
            url = item.get('URLString', '')
            title = item.get('URIDictionary', {}).get('title', '')
            rl = item.get('ReadingList', {})
            dt = rl.get('DateLastViewed') or rl.get('DateAdded')
            ts = dt.timestamp() if dt is not None else 0
            if url:
                items.append({'url': url, 'title': title, 'unix_ts': ts})
print(json.dumps(items))
`
	out, err := exec.CommandContext(ctx, "python3", "-c", script, plistPath).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if strings.Contains(stderr, "PermissionError") || strings.Contains(stderr, "Operation not permitted") {
				return nil, fmt.Errorf("Full Disk Access required to read Reading List")
			}
			return nil, fmt.Errorf("python3: %s", stderr)
		}
		return nil, fmt.Errorf("python3: %w", err)
	}
	return parseReadingList(out)
}

func parseReadingList(out []byte) ([]OpenTab, error) {
	var items []struct {
		URL    string  `json:"url"`
		Title  string  `json:"title"`
		UnixTS float64 `json:"unix_ts"`
	}
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, fmt.Errorf("parsing reading list output: %w", err)
	}
	var tabs []OpenTab
	for _, item := range items {
		t := OpenTab{URL: item.URL, Title: item.Title, Source: "readinglist"}
		if item.UnixTS > 0 {
			t.LastViewed = time.Unix(int64(item.UnixTS), 0)
		}
		tabs = append(tabs, t)
	}
	return tabs, nil
}

// deduplicateByURL removes duplicate URLs, keeping the tab with the most
// recent LastViewed time on collision.
func deduplicateByURL(tabs []OpenTab) []OpenTab {
	seen := make(map[string]int) // URL -> index in result
	var result []OpenTab
	for _, t := range tabs {
		if idx, ok := seen[t.URL]; ok {
			if t.LastViewed.After(result[idx].LastViewed) {
				result[idx] = t
			}
			continue
		}
		seen[t.URL] = len(result)
		result = append(result, t)
	}
	return result
}
