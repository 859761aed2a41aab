package listview_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/irfansharif/readlater/pkg/listview"
	"github.com/irfansharif/readlater/pkg/storage"
)

// TestListView runs the scripts under testdata/filter.
//
// Commands:
//
//	article id=<n> [status=<s>] [tags=(a,b)]   add an article to the collection
//	status <unread|archived>                   switch the status view
//	tag <name>                                 set the tag filter
//	clear                                      clear the tag filter
//	show                                       print the visible cards
//	parse-tags                                 parse the input as a tag list
func TestListView(t *testing.T) {
	datadriven.Walk(t, "testdata/filter", func(t *testing.T, path string) {
		var articles []storage.Article
		vm := listview.NewViewModel()
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "article":
				a := storage.Article{
					ID:     argID(t, d),
					Status: storage.StatusUnread,
					Tags:   []string{},
				}
				a.URL = fmt.Sprintf("https://example.com/%d", a.ID)
				for _, arg := range d.CmdArgs {
					switch arg.Key {
					case "status":
						a.Status = storage.Status(arg.Vals[0])
					case "tags":
						a.Tags = arg.Vals
					}
				}
				articles = append(articles, a)
				return ""

			case "status":
				vm = vm.WithStatus(storage.Status(d.CmdArgs[0].Key))
				return show(articles, vm)

			case "tag":
				vm = vm.WithTag(d.CmdArgs[0].Key)
				return show(articles, vm)

			case "clear":
				vm = vm.ClearTag()
				return show(articles, vm)

			case "show":
				return show(articles, vm)

			case "parse-tags":
				return fmt.Sprintf("%q\n", listview.ParseTags(d.Input))

			default:
				d.Fatalf(t, "unknown command %q", d.Cmd)
				return ""
			}
		})
	})
}

func show(articles []storage.Article, vm listview.ViewModel) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "view status=%s tag=%q\n", vm.Status, vm.Tag)
	cards := listview.Cards(listview.Filter(articles, vm))
	if len(cards) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, c := range cards {
		fmt.Fprintf(&sb, "%d tags=%v [%s]\n", c.Article.ID, c.Article.Tags, c.ToggleLabel())
	}
	return sb.String()
}

func argID(t *testing.T, d *datadriven.TestData) int64 {
	t.Helper()
	for _, arg := range d.CmdArgs {
		if arg.Key == "id" && len(arg.Vals) > 0 {
			id, err := strconv.ParseInt(arg.Vals[0], 10, 64)
			if err != nil {
				d.Fatalf(t, "invalid id %q: %v", arg.Vals[0], err)
			}
			return id
		}
	}
	d.Fatalf(t, "%s requires an id", d.Cmd)
	return 0
}
