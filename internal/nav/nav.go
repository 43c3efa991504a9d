// Package nav derives breadcrumbs from vmdeck's view paths, e.g.
// "/vms/web-1/console" becomes Home › Machines › web-1 › Console.
package nav

import (
	"strings"
)

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Label string
	Path  string
}

// sectionLabels names the fixed path segments. Anything else (a VM name) is
// shown verbatim.
var sectionLabels = map[string]string{
	"vms":      "Machines",
	"console":  "Console",
	"settings": "Settings",
	"toolbar":  "Toolbar",
	"keys":     "Shortcuts",
	"search":   "Search",
	"rename":   "Rename",
	"delete":   "Delete",
	"notes":    "Notes",
}

const homeLabel = "Home"

// Crumbs splits path into a trail starting at Home. Empty segments and
// surrounding slashes are ignored.
func Crumbs(path string) []Crumb {
	out := []Crumb{{Label: homeLabel, Path: "/"}}

	var b strings.Builder
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(seg)
		out = append(out, Crumb{Label: label(seg), Path: b.String()})
	}
	return out
}

// Join builds a view path from segments.
func Join(segs ...string) string {
	kept := make([]string, 0, len(segs))
	for _, s := range segs {
		if s = strings.Trim(strings.TrimSpace(s), "/"); s != "" {
			kept = append(kept, s)
		}
	}
	return "/" + strings.Join(kept, "/")
}

// Render joins crumb labels with sep.
func Render(crumbs []Crumb, sep string) string {
	labels := make([]string, len(crumbs))
	for i, c := range crumbs {
		labels[i] = c.Label
	}
	return strings.Join(labels, sep)
}

func label(seg string) string {
	if l, ok := sectionLabels[strings.ToLower(seg)]; ok {
		return l
	}
	return seg
}
